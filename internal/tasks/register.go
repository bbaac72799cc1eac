// Package tasks keeps the process-wide to-do list.
package tasks

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidIndex is returned by Done for positions outside the list.
var ErrInvalidIndex = errors.New("invalid task number")

// Register is an ordered list of task descriptions. Positions shown to users
// are 1-based; removing a task shifts later tasks down by one.
type Register struct {
	mu    sync.Mutex
	tasks []string
}

// NewRegister returns an empty register.
func NewRegister() *Register {
	return &Register{}
}

// Add appends text and returns it.
func (r *Register) Add(text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, text)
	return text
}

// List renders one "<n> <text>" line per task, starting at 1.
func (r *Register) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = fmt.Sprintf("%d %s", i+1, t)
	}
	return out
}

// Done removes the task at the 1-based index and returns its text.
func (r *Register) Done(index int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := index - 1
	if i < 0 || i >= len(r.tasks) {
		return "", fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	removed := r.tasks[i]
	r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	return removed, nil
}

// Len returns the number of open tasks.
func (r *Register) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
