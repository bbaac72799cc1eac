package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/tasks"
)

const (
	tasksUsage    = "Please type /tasks {task} to add a task or /tasks list to list all tasks."
	doneUsage     = "Please type /done {task_number} to mark a task as done."
	noTasks       = "You have no tasks."
	badTaskNumber = "Please provide a valid task number."
	outOfRange    = "Invalid task number. Please provide a valid task number."
)

// TaskHandler exposes /tasks and /done over one shared register.
type TaskHandler struct {
	register *tasks.Register
}

func NewTaskHandler(reg *tasks.Register) *TaskHandler {
	return &TaskHandler{register: reg}
}

func (h *TaskHandler) RegisterCommands(r *commands.Registry) error {
	if err := r.Register(commands.Command{
		Name: "tasks",
		Description: "Manages tasks. To use, type /tasks {task} to add a task or /tasks list to list all tasks. " +
			"Use /done {task_number} to mark a task as done.",
		Handler: h.handleTasks,
	}); err != nil {
		return err
	}
	return r.Register(commands.Command{
		Name:        "done",
		Description: "Marks a task as done and removes it. To use, type /done {task_number}.",
		Handler:     h.handleDone,
	})
}

func (h *TaskHandler) handleTasks(ctx context.Context, req commands.Request, reply commands.Replier) error {
	text := strings.Join(req.Args, " ")
	switch text {
	case "":
		return reply.Reply(ctx, tasksUsage)
	case "list":
		lines := h.register.List()
		if len(lines) == 0 {
			return reply.Reply(ctx, noTasks)
		}
		return replyAll(ctx, reply, lines)
	default:
		h.register.Add(text)
		return reply.Reply(ctx, "You have added the task: "+text)
	}
}

func (h *TaskHandler) handleDone(ctx context.Context, req commands.Request, reply commands.Replier) error {
	if len(req.Args) == 0 {
		return reply.Reply(ctx, doneUsage)
	}
	n, err := strconv.Atoi(req.Args[0])
	if err != nil {
		return reply.Reply(ctx, badTaskNumber)
	}
	removed, err := h.register.Done(n)
	if errors.Is(err, tasks.ErrInvalidIndex) {
		return reply.Reply(ctx, outOfRange)
	}
	if err != nil {
		return err
	}
	return reply.Reply(ctx, fmt.Sprintf("Task \"%s\" marked as done and removed from the list.", removed))
}
