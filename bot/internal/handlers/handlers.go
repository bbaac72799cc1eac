// Package handlers implements the chat commands. Each handler owns one
// concern and registers its commands with RegisterCommands.
package handlers

import (
	"context"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
)

// Registrar is implemented by every handler in this package.
type Registrar interface {
	RegisterCommands(r *commands.Registry) error
}

func replyAll(ctx context.Context, reply commands.Replier, texts []string) error {
	for _, t := range texts {
		if err := reply.Reply(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
