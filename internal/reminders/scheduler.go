// Package reminders parses "/remind <message> HH:MM" requests and delivers
// each reminder once, at the requested minute of the current day.
package reminders

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUsage      = errors.New("reminder: missing time")
	ErrTimeFormat = errors.New("reminder: time is not HH:MM")
	ErrTimeValue  = errors.New("reminder: hour or minute out of range")
	ErrPast       = errors.New("reminder: time is not in the future")
	ErrStopped    = errors.New("reminder: scheduler stopped")
)

// UserMessage maps a Set error to the text shown in chat.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUsage):
		return "Please use /remind {message} {HH:MM}"
	case errors.Is(err, ErrTimeFormat):
		return `Please type the time in "HH:MM" format`
	case errors.Is(err, ErrTimeValue):
		return "Please type in valid values as your time."
	case errors.Is(err, ErrPast):
		return "Please type in a time that is in the future"
	default:
		return "Sorry, the reminder could not be set."
	}
}

// Reminder is a message to deliver to a chat at a minute of today.
type Reminder struct {
	ID        uuid.UUID
	ChatID    int64
	Message   string
	At        time.Time
	CreatedAt time.Time
}

// Text is what gets delivered when the reminder fires.
func (r Reminder) Text() string {
	if r.Message == "" {
		return "Reminder: " + r.At.Format("15:04")
	}
	return "Reminder: " + r.Message
}

// Notifier delivers a fired reminder to its chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, chatID int64, text string) error

func (f NotifierFunc) Notify(ctx context.Context, chatID int64, text string) error {
	return f(ctx, chatID, text)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithClock(c Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithLocation(loc *time.Location) Option { return func(s *Scheduler) { s.loc = loc } }

func WithLogger(l zerolog.Logger) Option { return func(s *Scheduler) { s.log = l } }

// WithNotifyTimeout bounds each delivery attempt.
func WithNotifyTimeout(d time.Duration) Option { return func(s *Scheduler) { s.notifyTimeout = d } }

// Scheduler stores pending reminders and arms a one-shot timer for each.
// Nothing survives a restart.
type Scheduler struct {
	clock         Clock
	loc           *time.Location
	notifier      Notifier
	log           zerolog.Logger
	notifyTimeout time.Duration

	mu      sync.Mutex
	pending map[uuid.UUID]*pendingReminder
	stopped bool
}

type pendingReminder struct {
	reminder Reminder
	timer    Timer
}

func NewScheduler(n Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:         RealClock{},
		loc:           time.Local,
		notifier:      n,
		log:           zerolog.Nop(),
		notifyTimeout: 30 * time.Second,
		pending:       make(map[uuid.UUID]*pendingReminder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set parses args (message words followed by HH:MM), validates the time and
// schedules delivery to chatID. Nothing is stored when an error is returned.
func (s *Scheduler) Set(ctx context.Context, args []string, chatID int64) (Reminder, error) {
	if err := ctx.Err(); err != nil {
		return Reminder{}, err
	}
	if len(args) == 0 {
		return Reminder{}, ErrUsage
	}
	message := strings.Join(args[:len(args)-1], " ")

	hour, minute, err := parseClock(args[len(args)-1])
	if err != nil {
		return Reminder{}, err
	}

	now := s.clock.Now().In(s.loc)
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, s.loc)
	if !at.After(now) {
		return Reminder{}, ErrPast
	}

	r := Reminder{
		ID:        uuid.New(),
		ChatID:    chatID,
		Message:   message,
		At:        at,
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return Reminder{}, ErrStopped
	}
	p := &pendingReminder{reminder: r}
	s.pending[r.ID] = p
	p.timer = s.clock.AfterFunc(at.Sub(now), func() { s.fire(r.ID) })

	s.log.Debug().
		Str("reminder_id", r.ID.String()).
		Int64("chat_id", chatID).
		Time("at", at).
		Msg("reminder scheduled")
	return r, nil
}

// Pending returns the chat's reminders that have not fired, earliest first.
func (s *Scheduler) Pending(chatID int64) []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, p := range s.pending {
		if p.reminder.ChatID == chatID {
			out = append(out, p.reminder)
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// Len returns the number of pending reminders across all chats.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop disarms every pending timer. Reminders not yet delivered are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	for id, p := range s.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(s.pending, id)
	}
}

func (s *Scheduler) fire(id uuid.UUID) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	r := p.reminder
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, r.ChatID, r.Text()); err != nil {
		s.log.Error().Stack().Err(err).
			Str("reminder_id", r.ID.String()).
			Int64("chat_id", r.ChatID).
			Msg("reminder delivery failed")
		return
	}
	s.log.Info().Str("reminder_id", r.ID.String()).Int64("chat_id", r.ChatID).Msg("reminder delivered")
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, ErrTimeFormat
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, ErrTimeValue
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, ErrTimeValue
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, ErrTimeValue
	}
	return hour, minute, nil
}
