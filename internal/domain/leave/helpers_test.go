package leave_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/users"
	"holidayhub/internal/platform/jobs"
	"holidayhub/internal/platform/store/memory"
)

type sentMail struct {
	To, Subject, Body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *recordingNotifier) mails() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type recordingCalendar struct {
	mu      sync.Mutex
	created []leave.Event
	deleted []string
	err     error
}

func (c *recordingCalendar) CreateEvent(_ context.Context, e leave.Event) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.created = append(c.created, e)
	return fmt.Sprintf("evt-%d", len(c.created)), nil
}

func (c *recordingCalendar) DeleteEvent(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, id)
	return c.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store    *memory.Store
	svc      *leave.Service
	users    *users.Service
	jobs     *jobs.Service
	notifier *recordingNotifier
	calendar *recordingCalendar
	clock    *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		store:    memory.New(),
		jobs:     jobs.New(64, 2, time.Second),
		notifier: &recordingNotifier{},
		calendar: &recordingCalendar{},
		clock:    &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	h.users = users.NewService(h.store, nil)
	h.users.Now = h.clock.Now
	h.svc = leave.NewService(h.store, h.users, h.notifier, h.calendar, h.jobs)
	h.svc.Now = h.clock.Now
	h.users.Provisioner = h.svc
	h.jobs.Start(ctx)
	return h
}

func (h *harness) user(t *testing.T, name, role string) leave.Person {
	t.Helper()
	u, err := h.users.Create(context.Background(), fmt.Sprintf("%s@example.com", name), name, role)
	require.NoError(t, err)
	return leave.Person{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (h *harness) employee(t *testing.T, name string) leave.Person {
	return h.user(t, name, auth.RoleEmployee)
}

func (h *harness) credit(t *testing.T, p leave.Person, category string) leave.Credit {
	t.Helper()
	c, err := h.svc.Balance(context.Background(), p.ID, h.clock.Now().Year(), category)
	require.NoError(t, err)
	return c
}

func (h *harness) setCredit(t *testing.T, p leave.Person, category string, total, used float64) {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.Upsert(ctx, p.ID, h.clock.Now().Year(), category, total)
	require.NoError(t, err)
	if used > 0 {
		_, err = h.svc.ApplyUsage(ctx, leave.CreditKey{UserID: p.ID, Year: h.clock.Now().Year(), Category: category}, used)
		require.NoError(t, err)
	}
}

func date(s string) time.Time {
	d, err := time.Parse(leave.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func isInsufficient(err error) (*leave.InsufficientBalanceError, bool) {
	var ib *leave.InsufficientBalanceError
	ok := errors.As(err, &ib)
	return ib, ok
}
