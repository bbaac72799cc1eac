package bot

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/responder"
	"github.com/Matthew-123-dev/simpomni-bot/internal/telegram"
)

// Router turns one update into either a command dispatch or a free-text
// reply.
type Router struct {
	registry   *commands.Registry
	sender     Sender
	handle     string
	log        zerolog.Logger
	newBackOff func() backoff.BackOff
}

func NewRouter(reg *commands.Registry, sender Sender, botUsername string, log zerolog.Logger) *Router {
	r := &Router{
		registry:   reg,
		sender:     sender,
		log:        log,
		newBackOff: defaultReplyBackOff,
	}
	r.SetUsername(botUsername)
	return r
}

// SetUsername sets the handle used for group mentions and /cmd@bot
// suffixes. It must be called before routing starts.
func (r *Router) SetUsername(name string) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if name == "" {
		r.handle = ""
		return
	}
	r.handle = "@" + name
}

// Handle returns the bot mention, e.g. "@simpomni_bot", or "" if unknown.
func (r *Router) Handle() string { return r.handle }

// Route handles one update. Messages without text are ignored. Commands
// that are not registered are answered as free text.
func (r *Router) Route(ctx context.Context, u telegram.Update) error {
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		updatesTotal.WithLabelValues("ignored").Inc()
		return nil
	}
	reply := chatReplier{sender: r.sender, chatID: msg.Chat.ID, newBackOff: r.newBackOff}

	if name, args, ok := r.parseCommand(msg.Text); ok {
		if _, known := r.registry.Lookup(name); known {
			updatesTotal.WithLabelValues("command").Inc()
			return r.dispatch(ctx, name, args, msg, reply)
		}
		commandsTotal.WithLabelValues("unknown", "unknown").Inc()
		r.log.Debug().Str("command", name).Int64("chat_id", msg.Chat.ID).Msg("unknown command")
	}
	return r.routeText(ctx, msg, reply)
}

func (r *Router) dispatch(ctx context.Context, name string, args []string, msg *telegram.Message, reply commands.Replier) error {
	req := commands.Request{
		ChatID:   msg.Chat.ID,
		ChatType: msg.Chat.Type,
		Args:     args,
		Text:     msg.Text,
	}
	if msg.From != nil {
		req.UserID = msg.From.ID
		req.Username = msg.From.Username
	}

	r.log.Debug().Str("command", name).Int64("chat_id", req.ChatID).Strs("args", args).Msg("dispatching command")

	err := r.registry.Dispatch(ctx, name, req, reply)
	switch {
	case err == nil:
		commandsTotal.WithLabelValues(name, "ok").Inc()
		return nil
	case stderrors.Is(err, commands.ErrUnknownCommand):
		commandsTotal.WithLabelValues("unknown", "unknown").Inc()
		return nil
	default:
		commandsTotal.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("/%s: %w", name, err)
	}
}

func (r *Router) routeText(ctx context.Context, msg *telegram.Message, reply commands.Replier) error {
	text := msg.Text
	r.log.Debug().Int64("chat_id", msg.Chat.ID).Str("chat_type", msg.Chat.Type).Str("text", text).Msg("text message")

	if msg.Chat.IsGroup() {
		stripped, mentioned := responder.StripMention(text, r.handle)
		if !mentioned {
			updatesTotal.WithLabelValues("ignored").Inc()
			return nil
		}
		text = stripped
	}
	updatesTotal.WithLabelValues("text").Inc()

	response := responder.Respond(text)
	r.log.Debug().Int64("chat_id", msg.Chat.ID).Str("response", response).Msg("text reply")
	return reply.Reply(ctx, response)
}

// parseCommand splits "/name[@bot] args..." into a normalised name and its
// arguments. Commands addressed to a different bot are not commands for us.
func (r *Router) parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	head := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		target := head[at+1:]
		head = head[:at]
		if r.handle != "" && !strings.EqualFold("@"+target, r.handle) {
			return "", nil, false
		}
	}
	if head == "" {
		return "", nil, false
	}
	return commands.Normalize(head), fields[1:], true
}
