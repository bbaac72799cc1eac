package shardqueue

import "context"

// Job is a unit of work executed by a ShardExecutor.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Kinded is implemented by jobs that report what they carry. The kind
// becomes the "kind" label of the executor metrics.
type Kinded interface {
	Kind() string
}

const (
	kindOther   = "other"
	kindBarrier = "barrier"
)

// Tag labels job with kind for metrics.
func Tag(kind string, job Job) Job {
	return taggedJob{kind: kind, Job: job}
}

type taggedJob struct {
	kind string
	Job
}

func (j taggedJob) Kind() string { return j.kind }

func kindOf(job Job) string {
	if k, ok := job.(Kinded); ok && k.Kind() != "" {
		return k.Kind()
	}
	return kindOther
}
