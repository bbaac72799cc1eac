package bot

import (
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Matthew-123-dev/simpomni-bot/internal/shardqueue"
)

// Job kinds queued on the chat shards.
const (
	KindUpdate   = "update"
	KindReminder = "reminder"
)

// JobError ties a failed job to the update or reminder it was serving.
type JobError struct {
	Kind     string // KindUpdate or KindReminder
	UpdateID int64
	ChatID   int64
	Err      error
}

func (e *JobError) Error() string {
	if e.Kind == KindUpdate {
		return fmt.Sprintf("update %d (chat %d): %v", e.UpdateID, e.ChatID, e.Err)
	}
	return fmt.Sprintf("%s for chat %d: %v", e.Kind, e.ChatID, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// ErrorHandler returns the executor callback for jobs that gave up. The
// failure is logged and the bot keeps running.
func ErrorHandler(log zerolog.Logger) func(error) {
	return func(err error) {
		ev := log.Error().Stack().Err(err)

		var je *JobError
		if stderrors.As(err, &je) {
			ev = ev.Str("kind", je.Kind).Int64("chat_id", je.ChatID)
			if je.UpdateID != 0 {
				ev = ev.Int64("update_id", je.UpdateID)
			}
		}
		var pe *shardqueue.PanicError
		if stderrors.As(err, &pe) {
			ev = ev.Bytes("panic_stack", pe.Stack)
		}
		ev.Msg("update handling failed")
	}
}
