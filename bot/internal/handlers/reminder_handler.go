package handlers

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/reminders"
)

const (
	reminderSet = "Reminder has been set"
	noReminders = "You have no pending reminders."
)

// ReminderHandler exposes /remind and /reminders.
type ReminderHandler struct {
	scheduler *reminders.Scheduler
}

func NewReminderHandler(s *reminders.Scheduler) *ReminderHandler {
	return &ReminderHandler{scheduler: s}
}

func (h *ReminderHandler) RegisterCommands(r *commands.Registry) error {
	if err := r.Register(commands.Command{
		Name:        "remind",
		Description: "Sets a reminder for later today. To use, type /remind {message} {HH:MM}.",
		Handler:     h.handleRemind,
	}); err != nil {
		return err
	}
	return r.Register(commands.Command{
		Name:        "reminders",
		Description: "Lists the reminders that are still pending in this chat.",
		Handler:     h.handleList,
	})
}

func (h *ReminderHandler) handleRemind(ctx context.Context, req commands.Request, reply commands.Replier) error {
	rem, err := h.scheduler.Set(ctx, req.Args, req.ChatID)
	if err != nil {
		log.Debug().Err(err).Int64("chat_id", req.ChatID).Msg("reminder rejected")
		return reply.Reply(ctx, reminders.UserMessage(err))
	}
	log.Info().
		Str("reminder_id", rem.ID.String()).
		Int64("chat_id", req.ChatID).
		Time("at", rem.At).
		Msg("reminder set")
	return reply.Reply(ctx, reminderSet)
}

func (h *ReminderHandler) handleList(ctx context.Context, req commands.Request, reply commands.Replier) error {
	pending := h.scheduler.Pending(req.ChatID)
	if len(pending) == 0 {
		return reply.Reply(ctx, noReminders)
	}
	lines := make([]string, 0, len(pending))
	for _, p := range pending {
		lines = append(lines, strings.TrimSpace(p.At.Format("15:04")+" "+p.Message))
	}
	return replyAll(ctx, reply, commands.SplitMessage(strings.Join(lines, "\n"), commands.MaxMessageLength))
}
