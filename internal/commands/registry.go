// Package commands holds the static registry of chat commands, dispatches
// requests to their handlers and renders the help listing.
package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")
)

// Telegram accepts 1-32 lowercase letters, digits and underscores.
var namePattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// Request carries one command invocation.
type Request struct {
	ChatID   int64
	ChatType string
	UserID   int64
	Username string
	// Args are the whitespace-separated tokens after the command name.
	Args []string
	// Text is the full message text.
	Text string
}

// Replier sends a message back to the chat a request came from.
type Replier interface {
	Reply(ctx context.Context, text string) error
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(ctx context.Context, text string) error

func (f ReplierFunc) Reply(ctx context.Context, text string) error { return f(ctx, text) }

// Handler executes a command. Returned errors are framework-level failures;
// user mistakes are answered through the Replier instead.
type Handler func(ctx context.Context, req Request, reply Replier) error

type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// Registry is built once at startup. Registration order is the help order.
type Registry struct {
	mu    sync.RWMutex
	cmds  []Command
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds cmd. Names are normalised to lower case without a leading
// slash; empty descriptions, nil handlers and duplicates are rejected.
func (r *Registry) Register(cmd Command) error {
	cmd.Name = Normalize(cmd.Name)
	cmd.Description = strings.TrimSpace(cmd.Description)
	switch {
	case !namePattern.MatchString(cmd.Name):
		return fmt.Errorf("%w: bad name %q", ErrInvalidCommand, cmd.Name)
	case cmd.Description == "":
		return fmt.Errorf("%w: /%s has no description", ErrInvalidCommand, cmd.Name)
	case cmd.Handler == nil:
		return fmt.Errorf("%w: /%s has no handler", ErrInvalidCommand, cmd.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.index[cmd.Name]; dup {
		return fmt.Errorf("%w: /%s registered twice", ErrInvalidCommand, cmd.Name)
	}
	r.index[cmd.Name] = len(r.cmds)
	r.cmds = append(r.cmds, cmd)
	return nil
}

// Lookup finds a command by name; a leading slash and case are ignored.
func (r *Registry) Lookup(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[Normalize(name)]
	if !ok {
		return Command{}, false
	}
	return r.cmds[i], true
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// Dispatch runs the handler registered under name.
func (r *Registry) Dispatch(ctx context.Context, name string, req Request, reply Replier) error {
	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd.Handler(ctx, req, reply)
}

// Normalize lower-cases name and strips a leading slash.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
}
