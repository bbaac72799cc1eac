package bot

import (
	"context"

	"github.com/Matthew-123-dev/simpomni-bot/bot/internal/handlers"
	"github.com/Matthew-123-dev/simpomni-bot/internal/commands"
	"github.com/Matthew-123-dev/simpomni-bot/internal/facts"
	"github.com/Matthew-123-dev/simpomni-bot/internal/reminders"
	"github.com/Matthew-123-dev/simpomni-bot/internal/tasks"
)

// Deps are the stateful services the command handlers share.
type Deps struct {
	Weather interface {
		Lookup(ctx context.Context, city string) string
	}
	Scheduler *reminders.Scheduler
	Tasks     *tasks.Register
	Facts     *facts.Catalog
}

// NewRegistry registers every command. Registration order is the order
// shown by /help.
func NewRegistry(d Deps) (*commands.Registry, error) {
	if d.Tasks == nil {
		d.Tasks = tasks.NewRegister()
	}
	if d.Facts == nil {
		d.Facts = facts.Default()
	}

	reg := commands.NewRegistry()
	for _, h := range []handlers.Registrar{
		handlers.NewStartHandler(),
		handlers.NewWeatherHandler(d.Weather),
		handlers.NewReminderHandler(d.Scheduler),
		handlers.NewFactHandler(d.Facts),
		handlers.NewCalculatorHandler(),
		handlers.NewTaskHandler(d.Tasks),
	} {
		if err := h.RegisterCommands(reg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
