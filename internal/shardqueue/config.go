package shardqueue

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the environment prefix of the executor tunables,
// e.g. SIMPOMNI_QUEUE_SHARDS=8.
const EnvPrefix = "SIMPOMNI_QUEUE"

// Config tunes the per-chat executor. Zero values fall back to the defaults
// applied by NewShardExecutor.
type Config struct {
	// Shards bounds how many chats are served concurrently.
	Shards    int `envconfig:"SHARDS"     default:"4"`
	QueueSize int `envconfig:"QUEUE_SIZE" default:"128"`

	// EnqueueTimeout is how long the poll loop waits on a full shard before
	// dropping the update.
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"4"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"250ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"10s"`

	// ErrorHandler receives the error of every job that gave up.
	ErrorHandler func(error) `envconfig:"-"`
}

// LoadConfig reads Config from SIMPOMNI_QUEUE_* variables.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate rejects negative sizes and durations.
func (c Config) Validate() error {
	switch {
	case c.Shards < 0:
		return fmt.Errorf("%s_SHARDS must not be negative", EnvPrefix)
	case c.QueueSize < 0:
		return fmt.Errorf("%s_QUEUE_SIZE must not be negative", EnvPrefix)
	case c.MaxAttempts < 0:
		return fmt.Errorf("%s_MAX_ATTEMPTS must not be negative", EnvPrefix)
	case c.EnqueueTimeout < 0 || c.BaseBackoff < 0 || c.MaxInterval < 0:
		return fmt.Errorf("%s durations must not be negative", EnvPrefix)
	}
	return nil
}
