package bot

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clserr "github.com/Matthew-123-dev/simpomni-bot/internal/errors"
	"github.com/Matthew-123-dev/simpomni-bot/internal/health"
	"github.com/Matthew-123-dev/simpomni-bot/internal/responder"
	"github.com/Matthew-123-dev/simpomni-bot/internal/shardqueue"
	"github.com/Matthew-123-dev/simpomni-bot/internal/telegram"
)

func testExecutor() *shardqueue.ShardExecutor {
	return shardqueue.NewShardExecutor(shardqueue.Config{
		Shards:      2,
		BaseBackoff: time.Millisecond,
		MaxInterval: 5 * time.Millisecond,
	})
}

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}

func TestRunDeliversUpdatesAndShutsDown(t *testing.T) {
	api := &fakeAPI{
		pollErrs: []error{clserr.NewNetworkError("getUpdates", errors.New("connection reset"))},
		batches: [][]telegram.Update{
			{textUpdate(10, 1, telegram.ChatPrivate, "/start"), textUpdate(11, 2, telegram.ChatPrivate, "hi")},
			{textUpdate(12, 1, telegram.ChatPrivate, "how are you")},
		},
	}
	router := newTestRouter(t, api)

	var stopped atomic.Bool
	hb := health.NewHeartbeat("poller", time.Minute)
	b := New(api, router, testExecutor(), Options{
		PollTimeout: time.Second,
		Heartbeat:   hb,
		PollBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
		OnShutdown:  []func(){func() { stopped.Store(true) }},
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitFor(t, func() bool { return len(api.messages()) == 3 })
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.True(t, stopped.Load())
	assert.True(t, hb.IsHealthy())

	var chat1 []string
	for _, m := range api.messages() {
		if m.ChatID == 1 {
			chat1 = append(chat1, m.Text)
		}
	}
	assert.Equal(t, []string{"Hello there, thanks for chatting with me!\nWhat do you want me to do for you today?\nType /help to see all commands.", responder.Status}, chat1)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.GreaterOrEqual(t, len(api.offsets), 3)
	assert.Equal(t, []int64{0, 0, 12}, api.offsets[:3])
}

func TestRunStopsOnRejectedToken(t *testing.T) {
	api := &fakeAPI{pollErrs: []error{clserr.NewHTTPError(401, `{"ok":false}`, "getUpdates")}}
	router := newTestRouter(t, api)
	b := New(api, router, testExecutor(), Options{}, zerolog.Nop())

	err := b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot token rejected")
}

func TestRunResolvesUsername(t *testing.T) {
	api := &fakeAPI{me: &telegram.User{ID: 1, Username: "from_getme_bot"}}
	router := newTestRouter(t, api)
	router.SetUsername("")
	b := New(api, router, testExecutor(), Options{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Run(ctx))
	assert.Equal(t, "@from_getme_bot", router.Handle())
}

func TestNotifierRetriesThroughExecutor(t *testing.T) {
	api := &fakeAPI{sendErr: func(n int) error {
		if n == 1 {
			return clserr.NewHTTPError(429, "Too Many Requests", "sendMessage")
		}
		return nil
	}}
	exec := testExecutor()
	defer exec.Stop()

	n := NewNotifier(exec, api)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.Notify(ctx, 7, "Reminder: call mom"))
	cancel()

	waitFor(t, func() bool { return len(api.messages()) == 1 })
	assert.Equal(t, sentMessage{ChatID: 7, Text: "Reminder: call mom"}, api.messages()[0])
	assert.GreaterOrEqual(t, queueCounter(t, "simpomni_queue_job_retries_total", KindReminder), 1.0)
}

func TestErrorHandlerLogsJobContext(t *testing.T) {
	var buf bytes.Buffer
	h := ErrorHandler(zerolog.New(&buf))

	h(clserr.Permanent(&JobError{Kind: KindUpdate, UpdateID: 5, ChatID: 9, Err: errors.New("boom")}))

	out := buf.String()
	assert.Contains(t, out, `"update_id":5`)
	assert.Contains(t, out, `"chat_id":9`)
	assert.Contains(t, out, "boom")
}
