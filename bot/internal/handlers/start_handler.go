package handlers

import (
	"context"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
)

const Greeting = "Hello there, thanks for chatting with me!\n" +
	"What do you want me to do for you today?\n" +
	"Type /help to see all commands."

// StartHandler answers /start and /help. Help reads the registry it was
// registered with, so it always reflects every command.
type StartHandler struct {
	registry *commands.Registry
}

func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

func (h *StartHandler) RegisterCommands(r *commands.Registry) error {
	h.registry = r
	if err := r.Register(commands.Command{
		Name:        "start",
		Description: "Starts the bot.",
		Handler:     h.handleStart,
	}); err != nil {
		return err
	}
	return r.Register(commands.Command{
		Name: "help",
		Description: "Shows information about all commands or a specific one. " +
			"Type /help for every command or /help {command_name} for one.",
		Handler: h.handleHelp,
	})
}

func (h *StartHandler) handleStart(ctx context.Context, _ commands.Request, reply commands.Replier) error {
	return reply.Reply(ctx, Greeting)
}

func (h *StartHandler) handleHelp(ctx context.Context, req commands.Request, reply commands.Replier) error {
	return replyAll(ctx, reply, h.registry.Help(req.Args))
}
