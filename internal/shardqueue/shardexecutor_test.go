package shardqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	bterrors "github.com/Matthew-123-dev/simpomni-bot/internal/errors"
)

type noopJob struct{}

func (n noopJob) Run(ctx context.Context) error { return nil }

func TestShardExecutor_SubmitAndStop(t *testing.T) {
	t.Parallel()
	exec := NewShardExecutor(Config{})
	defer exec.Stop()

	if err := exec.Submit(context.Background(), "k1", noopJob{}); err != nil {
		t.Fatalf("submit error: %v", err)
	}
}

func TestShardExecutor_QueueFull(t *testing.T) {
	t.Parallel()
	cfg := Config{QueueSize: 1, Shards: 1, EnqueueTimeout: 10 * time.Millisecond}
	exec := NewShardExecutor(cfg)
	defer exec.Stop()

	blockCtx, cancel := context.WithCancel(context.Background())
	var started int32
	_ = exec.Submit(context.Background(), "same", JobFunc(func(ctx context.Context) error {
		atomic.StoreInt32(&started, 1)
		<-blockCtx.Done()
		return nil
	}))

	for atomic.LoadInt32(&started) == 0 {
		time.Sleep(time.Millisecond)
	}

	// Fill the buffer
	_ = exec.Submit(context.Background(), "same", noopJob{})
	err := exec.Submit(context.Background(), "same", noopJob{})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected queue full error, got %v", err)
	}
	cancel()
}

// FIFO ordering for a single chat.
func TestShardExecutor_FIFOOrdering(t *testing.T) {
	p := NewShardExecutor(Config{Shards: 4, QueueSize: 10})
	defer p.Stop()

	var (
		mu    sync.Mutex
		order []int
	)
	for i := 0; i < 5; i++ {
		v := i
		if err := p.Submit(context.Background(), "chat-1", JobFunc(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, v)
			mu.Unlock()
			return nil
		})); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Barrier(ctx, "chat-1"); err != nil {
		t.Fatalf("barrier: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("expected 5 jobs, got %v", order)
	}
	for i, v := range order {
		if i != v {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

// Jobs for different keys run in parallel (no head-of-line blocking).
func TestShardExecutor_ParallelDifferentKeys(t *testing.T) {
	p := NewShardExecutor(Config{Shards: 4, QueueSize: 10})
	defer p.Stop()

	keyA, keyB := "A", "B"
	for p.shardFor(keyB) == p.shardFor(keyA) {
		keyB += "x"
	}

	start := make(chan struct{})
	done := make(chan struct{})

	_ = p.Submit(context.Background(), keyA, JobFunc(func(context.Context) error {
		<-start
		close(done)
		return nil
	}))
	_ = p.Submit(context.Background(), keyB, JobFunc(func(context.Context) error {
		close(start)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("jobs blocked each other; expected parallelism")
	}
}

func TestShardExecutor_SubmitAfterStop(t *testing.T) {
	p := NewShardExecutor(Config{Shards: 2, QueueSize: 2})
	p.Stop()

	err := p.Submit(context.Background(), "Z", noopJob{})
	if !errors.Is(err, ErrExecutorClosed) {
		t.Fatalf("expected ErrExecutorClosed, got %v", err)
	}
}

// Stop racing with many concurrent Submit calls should never panic or deadlock.
func TestShardExecutor_StopSubmit_RaceFree(t *testing.T) {
	p := NewShardExecutor(Config{Shards: 4, QueueSize: 32})

	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Submit(context.Background(), "k", noopJob{})
		}()
	}

	go p.Stop()
	wg.Wait()
}

func TestShardExecutor_Retry(t *testing.T) {
	cfg := Config{Shards: 1, QueueSize: 10, MaxAttempts: 3, BaseBackoff: 5 * time.Millisecond}
	ex := NewShardExecutor(cfg)
	defer ex.Stop()

	var attempts int32
	err := ex.Submit(context.Background(), "k1", JobFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return bterrors.NewHTTPError(502, "", "sendMessage")
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ex.Barrier(ctx, "k1"); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestShardExecutor_IrrecoverableNotRetried(t *testing.T) {
	var handled int32
	cfg := Config{Shards: 1, QueueSize: 10, MaxAttempts: 5, BaseBackoff: time.Millisecond}
	cfg.ErrorHandler = func(error) { atomic.AddInt32(&handled, 1) }
	ex := NewShardExecutor(cfg)
	defer ex.Stop()

	var attempts int32
	_ = ex.Submit(context.Background(), "k", JobFunc(func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return bterrors.NewHTTPError(403, "bot was blocked by the user", "sendMessage")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ex.Barrier(ctx, "k"); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Fatalf("irrecoverable error retried: %d attempts", attempts)
	}
	if atomic.LoadInt32(&handled) != 1 {
		t.Fatalf("error handler calls = %d, want 1", handled)
	}
}

// A panicking job is reported and the same shard keeps serving later jobs.
func TestShardExecutor_PanicRecoveredPerJob(t *testing.T) {
	errs := make(chan error, 1)
	cfg := Config{Shards: 1, QueueSize: 4, MaxAttempts: 3}
	cfg.ErrorHandler = func(err error) { errs <- err }
	ex := NewShardExecutor(cfg)
	defer ex.Stop()

	if err := ex.Submit(context.Background(), "k", JobFunc(func(ctx context.Context) error { panic("job panic") })); err != nil {
		t.Fatalf("submit panic job: %v", err)
	}

	ran := make(chan struct{})
	if err := ex.Submit(context.Background(), "k", JobFunc(func(ctx context.Context) error { close(ran); return nil })); err != nil {
		t.Fatalf("submit follow-up: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("shard stopped after job panic")
	}

	err := <-errs
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Value != "job panic" || len(pe.Stack) == 0 {
		t.Fatalf("unexpected panic error: %+v", pe)
	}
}

func TestShardExecutor_ErrorHandlerPanicRecovered(t *testing.T) {
	cfg := Config{Shards: 1, QueueSize: 8, MaxAttempts: 1}
	cfg.ErrorHandler = func(err error) { panic("handler panic") }
	ex := NewShardExecutor(cfg)
	defer ex.Stop()

	_ = ex.Submit(context.Background(), "k", JobFunc(func(ctx context.Context) error {
		return errors.New("boom")
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ex.Barrier(ctx, "k"); err != nil {
		t.Fatalf("worker did not survive handler panic: %v", err)
	}
}

func TestShardExecutor_CancelledJobSkipped(t *testing.T) {
	ex := NewShardExecutor(Config{Shards: 1, QueueSize: 4})
	defer ex.Stop()

	block := make(chan struct{})
	_ = ex.Submit(context.Background(), "k", JobFunc(func(ctx context.Context) error {
		<-block
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	var ran int32
	_ = ex.Submit(ctx, "k", JobFunc(func(ctx context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	}))
	cancel()
	close(block)

	bctx, bcancel := context.WithTimeout(context.Background(), time.Second)
	defer bcancel()
	if err := ex.Barrier(bctx, "k"); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if atomic.LoadInt32(&ran) != 0 {
		t.Fatal("cancelled job should not run")
	}
}

func TestQueueFullError_ErrorAndIs(t *testing.T) {
	e := &QueueFullError{Shard: 3, Length: 10, Capacity: 16}
	if e.Error() != "shard queue 3 full (len=10 cap=16)" {
		t.Fatalf("unexpected message %q", e.Error())
	}
	if !errors.Is(e, ErrQueueFull) {
		t.Fatal("expected errors.Is(e, ErrQueueFull) to be true")
	}
	if errors.Is(e, ErrExecutorClosed) {
		t.Fatal("unexpected match with ErrExecutorClosed")
	}
}

// counterValue reads a counter from the default registry; 0 if absent.
func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := map[string]string{}
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestShardExecutor_MetricsByKind(t *testing.T) {
	cfg := Config{Shards: 1, QueueSize: 8, MaxAttempts: 3, BaseBackoff: time.Millisecond}
	ex := NewShardExecutor(cfg)
	defer ex.Stop()

	var attempts int32
	_ = ex.Submit(context.Background(), "k", Tag("test-retry", JobFunc(func(ctx context.Context) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return bterrors.NewHTTPError(502, "", "sendMessage")
		}
		return nil
	})))
	_ = ex.Submit(context.Background(), "k", Tag("test-fail", JobFunc(func(ctx context.Context) error {
		return bterrors.NewHTTPError(403, "blocked", "sendMessage")
	})))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ex.Barrier(ctx, "k"); err != nil {
		t.Fatalf("barrier: %v", err)
	}

	if got := counterValue(t, "simpomni_queue_jobs_submitted_total", map[string]string{"kind": "test-retry"}); got != 1 {
		t.Fatalf("submitted{test-retry} = %v, want 1", got)
	}
	if got := counterValue(t, "simpomni_queue_job_retries_total", map[string]string{"kind": "test-retry"}); got != 2 {
		t.Fatalf("retries{test-retry} = %v, want 2", got)
	}
	if got := counterValue(t, "simpomni_queue_job_failures_total", map[string]string{"kind": "test-fail", "reason": "failed"}); got != 1 {
		t.Fatalf("failures{test-fail,failed} = %v, want 1", got)
	}
	if got := counterValue(t, "simpomni_queue_job_failures_total", map[string]string{"kind": "test-retry"}); got != 0 {
		t.Fatalf("failures{test-retry} = %v, want 0", got)
	}
}

func TestKindOf(t *testing.T) {
	if got := kindOf(noopJob{}); got != "other" {
		t.Fatalf("untagged kind = %q", got)
	}
	if got := kindOf(Tag("update", noopJob{})); got != "update" {
		t.Fatalf("tagged kind = %q", got)
	}
}
