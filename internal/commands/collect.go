package commands

import (
	"context"
	"sync"
)

// Collector is a Replier that keeps replies in memory. It backs the local
// exec command and the MCP bridge.
type Collector struct {
	mu    sync.Mutex
	texts []string
}

func (c *Collector) Reply(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

// Texts returns the replies in the order they were sent.
func (c *Collector) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}
