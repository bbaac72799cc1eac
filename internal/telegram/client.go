// Package telegram is a small Bot API client covering the calls the bot
// needs: getMe, long-polling getUpdates and sendMessage.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Matthew-123-dev/simpomni-bot/internal/errors"
)

const DefaultBaseURL = "https://api.telegram.org"

// Client talks to the Bot API for one bot token.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithDebug wraps the transport so requests and responses are dumped at
// debug level.
func WithDebug(enabled bool) Option {
	return func(c *Client) {
		if !enabled {
			return
		}
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = &debugTransport{base: base, token: c.token}
	}
}

// New creates a Client. An empty baseURL selects DefaultBaseURL.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetMe returns the bot's own user record.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, http.MethodGet, "getMe", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthPing succeeds when the token is accepted by the Bot API.
func (c *Client) HealthPing(ctx context.Context) error {
	_, err := c.GetMe(ctx)
	return err
}

// GetUpdates long-polls for updates starting at offset and returns them
// with the offset to use next. The request deadline is timeout plus a grace
// period so the server always answers first.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(secs))
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()

	var updates []Update
	if err := c.call(reqCtx, http.MethodGet, "getUpdates", q, nil, &updates); err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// SendMessage posts text as a plain message to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return pkgerrors.Wrap(err, "encode sendMessage")
	}
	return c.call(ctx, http.MethodPost, "sendMessage", nil, body, nil)
}

func (c *Client) call(ctx context.Context, method, apiMethod string, query url.Values, body []byte, out any) error {
	u := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, apiMethod)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return pkgerrors.Wrap(c.redact(err), apiMethod)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NewNetworkError(apiMethod, pkgerrors.WithStack(c.redact(err)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkError(apiMethod, pkgerrors.WithStack(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewHTTPError(resp.StatusCode, strings.TrimSpace(string(raw)), apiMethod)
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.Permanent(pkgerrors.Wrapf(err, "decode %s response", apiMethod))
	}
	if !env.OK {
		return errors.Permanent(fmt.Errorf("telegram %s: ok=false: %s", apiMethod, env.Description))
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return errors.Permanent(pkgerrors.Wrapf(err, "decode %s result", apiMethod))
	}
	return nil
}

// redact removes the bot token from URLs embedded in transport errors.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if c.token != "" && pkgerrors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, c.token, "<token>")
	}
	return err
}
