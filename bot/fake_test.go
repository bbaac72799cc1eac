package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Matthew-123-dev/simpomni-bot/internal/telegram"
)

type sentMessage struct {
	ChatID int64
	Text   string
}

type fakeAPI struct {
	mu       sync.Mutex
	sent     []sentMessage
	attempts int
	// sendErr, when set, decides the result of each send attempt (1-based).
	sendErr func(attempt int) error

	batches  [][]telegram.Update
	pollErrs []error
	polls    int
	offsets  []int64
	me       *telegram.User
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.sendErr != nil {
		if err := f.sendErr(f.attempts); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (f *fakeAPI) GetMe(context.Context) (*telegram.User, error) {
	if f.me == nil {
		return &telegram.User{ID: 1, IsBot: true, Username: "simpomni_bot"}, nil
	}
	return f.me, nil
}

// GetUpdates first returns the scripted poll errors, then the batches, and
// then blocks until ctx is done.
func (f *fakeAPI) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]telegram.Update, int64, error) {
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	i := f.polls
	f.polls++
	f.mu.Unlock()

	if i < len(f.pollErrs) {
		return nil, offset, f.pollErrs[i]
	}
	i -= len(f.pollErrs)
	if i < len(f.batches) {
		next := offset
		for _, u := range f.batches[i] {
			if u.UpdateID >= next {
				next = u.UpdateID + 1
			}
		}
		return f.batches[i], next, nil
	}
	<-ctx.Done()
	return nil, offset, ctx.Err()
}

func (f *fakeAPI) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) texts() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.Text)
	}
	return out
}

type stubWeather struct{}

func (stubWeather) Lookup(_ context.Context, city string) string { return "weather for " + city }

func textUpdate(id, chatID int64, chatType, text string) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message: &telegram.Message{
			MessageID: id,
			Chat:      &telegram.Chat{ID: chatID, Type: chatType},
			From:      &telegram.User{ID: 99, Username: "alice"},
			Text:      text,
		},
	}
}

// queueCounter sums a per-kind executor counter from the default registry.
func queueCounter(t *testing.T, name, kind string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "kind" && lp.GetValue() == kind {
					sum += m.GetCounter().GetValue()
				}
			}
		}
	}
	return sum
}
