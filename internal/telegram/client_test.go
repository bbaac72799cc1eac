package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	clserr "github.com/Matthew-123-dev/simpomni-bot/internal/errors"
)

type errRT struct{}

func (errRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, errors.New("boom") }

func TestGetMe(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/getMe" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":9,"is_bot":true,"username":"simpomni_bot"}}`))
	}))
	defer srv.Close()

	me, err := New(srv.URL, "TOKEN").GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.ID != 9 || me.Username != "simpomni_bot" {
		t.Fatalf("unexpected user %+v", me)
	}
}

func TestGetUpdatesAdvancesOffset(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("offset") != "100" || q.Get("timeout") != "2" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"text":"/start"}},
			{"update_id":102,"message":{"message_id":2,"chat":{"id":6,"type":"group"},"text":"hi"}}
		]}`))
	}))
	defer srv.Close()

	ups, next, err := New(srv.URL, "T").GetUpdates(context.Background(), 100, 2*time.Second)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(ups) != 2 || next != 103 {
		t.Fatalf("got %d updates, next=%d", len(ups), next)
	}
	if ups[0].Message.Text != "/start" || !ups[1].Message.Chat.IsGroup() {
		t.Fatalf("unexpected decode %+v", ups)
	}
}

func TestGetUpdatesEmptyKeepsOffset(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	_, next, err := New(srv.URL, "T").GetUpdates(context.Background(), 7, time.Second)
	if err != nil || next != 7 {
		t.Fatalf("next=%d err=%v", next, err)
	}
}

func TestSendMessage(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/botT/sendMessage" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		var req sendMessageRequest
		if err := json.Unmarshal(b, &req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.ChatID != 42 || req.Text != "hello" {
			t.Fatalf("unexpected body %s", b)
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer srv.Close()

	if err := New(srv.URL, "T").SendMessage(context.Background(), 42, "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status        int
		irrecoverable bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, false},
		{http.StatusBadGateway, false},
	}
	for _, tc := range cases {
		tc := tc
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"ok":false,"description":"nope"}`))
		}))
		err := New(srv.URL, "T").SendMessage(context.Background(), 1, "x")
		srv.Close()

		var ce *clserr.ClassifiedError
		if !errors.As(err, &ce) || ce.StatusCode != tc.status {
			t.Fatalf("status %d: expected classified error, got %v", tc.status, err)
		}
		if clserr.IsIrrecoverable(err) != tc.irrecoverable {
			t.Fatalf("status %d: irrecoverable=%v", tc.status, !tc.irrecoverable)
		}
	}
}

func TestOKFalseIsPermanent(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "T").SendMessage(context.Background(), 1, "x")
	if err == nil || !clserr.IsIrrecoverable(err) {
		t.Fatalf("expected irrecoverable error, got %v", err)
	}
}

func TestNetworkErrorIsRecoverableAndRedacted(t *testing.T) {
	t.Parallel()
	c := New("http://example.invalid", "SECRET", WithHTTPClient(&http.Client{Transport: errRT{}}))
	err := c.SendMessage(context.Background(), 1, "x")
	if err == nil {
		t.Fatal("expected error")
	}
	if clserr.IsIrrecoverable(err) {
		t.Fatalf("network errors must be retryable: %v", err)
	}
	if strings.Contains(err.Error(), "SECRET") {
		t.Fatalf("token leaked in %q", err.Error())
	}
}

func TestDebugTransportPassesThrough(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "T", WithHTTPClient(&http.Client{}), WithDebug(true))
	if _, ok := c.http.Transport.(*debugTransport); !ok {
		t.Fatalf("debug transport not installed")
	}
	if _, err := c.GetMe(context.Background()); err != nil {
		t.Fatalf("GetMe: %v", err)
	}
}
