package bot

import (
	"context"

	"github.com/Matthew-123-dev/simpomni-bot/internal/shardqueue"
)

// Notifier delivers fired reminders through the chat's shard, so a reminder
// never overtakes replies already queued for that chat. Failed sends are
// retried by the executor.
type Notifier struct {
	exec   *shardqueue.ShardExecutor
	sender Sender
}

func NewNotifier(exec *shardqueue.ShardExecutor, sender Sender) *Notifier {
	return &Notifier{exec: exec, sender: sender}
}

func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	job := shardqueue.Tag(KindReminder, shardqueue.JobFunc(func(jctx context.Context) error {
		if err := n.sender.SendMessage(jctx, chatID, text); err != nil {
			return &JobError{Kind: KindReminder, ChatID: chatID, Err: err}
		}
		return nil
	}))
	return n.exec.Submit(context.WithoutCancel(ctx), chatKey(chatID), job)
}
