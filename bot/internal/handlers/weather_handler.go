package handlers

import (
	"context"
	"strings"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/weather"
)

// WeatherLooker returns the chat reply for a city.
type WeatherLooker interface {
	Lookup(ctx context.Context, city string) string
}

type WeatherHandler struct {
	weather WeatherLooker
}

func NewWeatherHandler(w WeatherLooker) *WeatherHandler {
	return &WeatherHandler{weather: w}
}

func (h *WeatherHandler) RegisterCommands(r *commands.Registry) error {
	return r.Register(commands.Command{
		Name:        "weather",
		Description: "Provides weather updates for a city of choice. To use, type /weather {city_name}.",
		Handler:     h.handleWeather,
	})
}

func (h *WeatherHandler) handleWeather(ctx context.Context, req commands.Request, reply commands.Replier) error {
	if len(req.Args) == 0 {
		return reply.Reply(ctx, weather.Usage)
	}
	return reply.Reply(ctx, h.weather.Lookup(ctx, strings.Join(req.Args, " ")))
}
