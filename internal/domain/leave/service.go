package leave

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Directory interface {
	Person(ctx context.Context, userID string) (Person, error)
	HRContacts(ctx context.Context) ([]Person, error)
}

type Notifier interface {
	Notify(ctx context.Context, to, subject, htmlBody string) error
}

type Calendar interface {
	CreateEvent(ctx context.Context, event Event) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Tasks runs side effects after the caller has returned. Enqueue reports
// false when the task was dropped.
type Tasks interface {
	Enqueue(name string, run func(context.Context) error) bool
}

// Observer receives outcome counts for the ledger and lifecycle.
type Observer interface {
	CreditMutation(op string, err error)
	RequestTransition(status Status)
	SideEffect(kind string, err error)
}

type Service struct {
	Store     Store
	Directory Directory
	Notifier  Notifier
	Calendar  Calendar
	Tasks     Tasks
	Metrics   Observer
	Now       func() time.Time
}

func NewService(store Store, directory Directory, notifier Notifier, calendar Calendar, tasks Tasks) *Service {
	return &Service{
		Store:     store,
		Directory: directory,
		Notifier:  notifier,
		Calendar:  calendar,
		Tasks:     tasks,
		Now:       time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func newID() string {
	return uuid.NewString()
}

func (s *Service) observeCredit(op string, err error) {
	if s.Metrics != nil {
		s.Metrics.CreditMutation(op, err)
	}
}

func (s *Service) observeTransition(status Status) {
	if s.Metrics != nil {
		s.Metrics.RequestTransition(status)
	}
}

// background hands run to the task runner. Failures are logged and never
// reach the caller.
func (s *Service) background(name string, run func(context.Context) error) {
	task := func(ctx context.Context) error {
		err := run(ctx)
		if s.Metrics != nil {
			s.Metrics.SideEffect(name, err)
		}
		if err != nil {
			slog.Warn("side effect failed", "task", name, "err", err)
		}
		return err
	}
	if s.Tasks == nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = task(ctx)
		}()
		return
	}
	if !s.Tasks.Enqueue(name, task) {
		slog.Warn("side effect dropped", "task", name)
	}
}

func (s *Service) notify(to Person, subject, body string) {
	if s.Notifier == nil || to.Email == "" {
		return
	}
	s.background("notify", func(ctx context.Context) error {
		return s.Notifier.Notify(ctx, to.Email, subject, body)
	})
}
