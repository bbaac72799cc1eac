// Package weather looks up current conditions for a city from the
// OpenWeatherMap current-weather endpoint.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "http://api.openweathermap.org"
	currentPath    = "/data/2.5/weather"

	// Apology is the reply for any failed lookup.
	Apology = "Sorry, couldn't find the weather for that city."
	// Usage is the reply when no city was given.
	Usage = "Please provide a city name after the /weather command."
)

// Report is the subset of the current-weather payload the bot uses.
type Report struct {
	City        string
	Description string
	Temperature float64
}

// String renders the chat reply for a successful lookup.
func (r Report) String() string {
	return fmt.Sprintf("The weather in %s is %s with a temperature of %s",
		r.City, r.Description, strconv.FormatFloat(r.Temperature, 'f', -1, 64))
}

type currentResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// Client calls OpenWeatherMap with metric units.
type Client struct {
	http   *resty.Client
	apiKey string
	log    zerolog.Logger
}

// New builds a Client. An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c, apiKey: apiKey, log: log}
}

// Fetch returns the current weather for city.
func (c *Client) Fetch(ctx context.Context, city string) (Report, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": c.apiKey,
			"units": "metric",
		}).
		Get(currentPath)
	if err != nil {
		return Report{}, fmt.Errorf("weather request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Report{}, fmt.Errorf("weather status %d: %s", resp.StatusCode(), resp.String())
	}

	var cr currentResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return Report{}, fmt.Errorf("decode response: %w", err)
	}
	if len(cr.Weather) == 0 || cr.Main.Temp == nil {
		return Report{}, fmt.Errorf("weather response for %q is missing conditions", city)
	}

	return Report{
		City:        city,
		Description: cr.Weather[0].Description,
		Temperature: *cr.Main.Temp,
	}, nil
}

// Lookup returns the chat reply for city. Failures are logged and mapped
// to Apology.
func (c *Client) Lookup(ctx context.Context, city string) string {
	r, err := c.Fetch(ctx, city)
	if err != nil {
		c.log.Warn().Err(err).Str("city", city).Msg("weather lookup failed")
		return Apology
	}
	return r.String()
}
