// Package bot is the runtime of the chat-bot: it long-polls the Bot API,
// routes each update to a command handler or the free-text responder, and
// runs the work on a per-chat sharded executor.
package bot

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/Matthew-123-dev/simpomni-bot/internal/errors"
	"github.com/Matthew-123-dev/simpomni-bot/internal/health"
	"github.com/Matthew-123-dev/simpomni-bot/internal/shardqueue"
	"github.com/Matthew-123-dev/simpomni-bot/internal/telegram"
)

// API is the subset of the Bot API the runtime uses.
type API interface {
	Sender
	GetMe(ctx context.Context) (*telegram.User, error)
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
}

type Options struct {
	PollTimeout time.Duration
	// Heartbeat, when set, is beaten after every successful poll.
	Heartbeat *health.Heartbeat
	// PollBackOff builds the wait policy between failed polls.
	PollBackOff func() backoff.BackOff
	// OnShutdown runs before the executor drains, in order.
	OnShutdown []func()
}

type Bot struct {
	api    API
	router *Router
	exec   *shardqueue.ShardExecutor
	opts   Options
	log    zerolog.Logger
}

func New(api API, router *Router, exec *shardqueue.ShardExecutor, opts Options, log zerolog.Logger) *Bot {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.PollBackOff == nil {
		opts.PollBackOff = func() backoff.BackOff {
			exp := backoff.NewExponentialBackOff()
			exp.InitialInterval = time.Second
			exp.MaxInterval = 30 * time.Second
			exp.MaxElapsedTime = 0
			return exp
		}
	}
	return &Bot{api: api, router: router, exec: exec, opts: opts, log: log}
}

// Run polls until ctx is cancelled, then stops reminder timers and drains
// the executor. It returns an error only when the Bot API rejects the token.
func (b *Bot) Run(ctx context.Context) error {
	defer b.shutdown()

	if b.router.Handle() == "" {
		if me, err := b.api.GetMe(ctx); err != nil {
			b.log.Warn().Err(err).Msg("getMe failed; group mentions disabled until a username is configured")
		} else {
			b.router.SetUsername(me.Username)
		}
	}
	b.log.Info().Str("handle", b.router.Handle()).Dur("poll_timeout", b.opts.PollTimeout).Msg("polling")

	bo := b.opts.PollBackOff()
	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, next, err := b.api.GetUpdates(ctx, offset, b.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			pollErrorsTotal.Inc()
			if unauthorized(err) {
				return fmt.Errorf("bot token rejected: %w", err)
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				wait = time.Minute
			}
			b.log.Warn().Err(err).Dur("retry_in", wait).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		bo.Reset()
		if b.opts.Heartbeat != nil {
			b.opts.Heartbeat.Beat()
		}
		offset = next
		for _, u := range updates {
			b.submit(ctx, u)
		}
	}
}

// submit hands the update to the shard of its chat. Jobs outlive ctx so
// updates already accepted are answered during shutdown.
func (b *Bot) submit(ctx context.Context, u telegram.Update) {
	var chatID int64
	if u.Message != nil && u.Message.Chat != nil {
		chatID = u.Message.Chat.ID
	}
	jobCtx := context.WithoutCancel(ctx)
	job := shardqueue.Tag(KindUpdate, shardqueue.JobFunc(func(jctx context.Context) error {
		if err := b.router.Route(jctx, u); err != nil {
			return errors.Permanent(&JobError{Kind: KindUpdate, UpdateID: u.UpdateID, ChatID: chatID, Err: err})
		}
		return nil
	}))
	if err := b.exec.Submit(jobCtx, chatKey(chatID), job); err != nil {
		b.log.Error().Err(err).Int64("update_id", u.UpdateID).Int64("chat_id", chatID).Msg("update dropped")
	}
}

func (b *Bot) shutdown() {
	b.log.Info().Msg("shutting down")
	for _, f := range b.opts.OnShutdown {
		f()
	}
	b.exec.Stop()
}

func unauthorized(err error) bool {
	var ce *errors.ClassifiedError
	return stderrors.As(err, &ce) && ce.StatusCode == http.StatusUnauthorized
}

func chatKey(chatID int64) string { return strconv.FormatInt(chatID, 10) }
