package handlers

import (
	"context"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/facts"
)

type FactHandler struct {
	catalog *facts.Catalog
}

func NewFactHandler(c *facts.Catalog) *FactHandler {
	return &FactHandler{catalog: c}
}

func (h *FactHandler) RegisterCommands(r *commands.Registry) error {
	return r.Register(commands.Command{
		Name:        "fact",
		Description: "Sends a random fact. To use, type /fact.",
		Handler: func(ctx context.Context, _ commands.Request, reply commands.Replier) error {
			return reply.Reply(ctx, h.catalog.Pick())
		},
	})
}
