package bot

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/Matthew-123-dev/simpomni-bot/internal/errors"
)

// Sender delivers a text message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

func defaultReplyBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 250 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = 30 * time.Second
	return exp
}

// chatReplier sends replies to one chat. Recoverable send failures are
// retried here, so handlers never run twice for one update.
type chatReplier struct {
	sender     Sender
	chatID     int64
	newBackOff func() backoff.BackOff
}

func (r chatReplier) Reply(ctx context.Context, text string) error {
	op := func() error {
		err := r.sender.SendMessage(ctx, r.chatID, text)
		if err != nil && errors.IsIrrecoverable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(r.newBackOff(), ctx))
}
