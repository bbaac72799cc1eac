package handlers

import (
	"context"

	"github.com/Matthew-123-dev/simpomni-bot/internal/calc"
	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
)

type CalculatorHandler struct{}

func NewCalculatorHandler() *CalculatorHandler { return &CalculatorHandler{} }

func (h *CalculatorHandler) RegisterCommands(r *commands.Registry) error {
	return r.Register(commands.Command{
		Name:        "calculator",
		Description: "Evaluates arithmetic expressions. To use, type /calculator {expression}.",
		Handler: func(ctx context.Context, req commands.Request, reply commands.Replier) error {
			return reply.Reply(ctx, calc.Evaluate(req.Args))
		},
	})
}
