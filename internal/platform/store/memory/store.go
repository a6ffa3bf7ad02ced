// Package memory keeps every record in process memory. Transactions are
// serialized by a store-wide lock and writes are staged until commit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/settings"
	"holidayhub/internal/domain/users"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	users    map[string]users.User
	credits  map[leave.CreditKey]leave.Credit
	requests map[string]leave.Request
	holidays map[string]leave.Holiday
	events   []audit.Event
	settings *settings.Record
}

func New() *Store {
	return &Store{
		users:    map[string]users.User{},
		credits:  map[leave.CreditKey]leave.Credit{},
		requests: map[string]leave.Request{},
		holidays: map[string]leave.Holiday{},
	}
}

type tx struct {
	s        *Store
	credits  map[leave.CreditKey]leave.Credit
	requests map[string]leave.Request
}

func (s *Store) InTx(ctx context.Context, fn func(leave.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t := &tx{s: s, credits: map[leave.CreditKey]leave.Credit{}, requests: map[string]leave.Request{}}
	if err := fn(t); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range t.credits {
		s.credits[k] = c
	}
	for id, r := range t.requests {
		s.requests[id] = r
	}
	return nil
}

func (t *tx) LockCredit(_ context.Context, key leave.CreditKey) (leave.Credit, error) {
	if c, ok := t.credits[key]; ok {
		return c, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.credits[key]
	if !ok {
		return leave.Credit{}, leave.ErrNoCreditRecord
	}
	return c, nil
}

func (t *tx) SaveCredit(_ context.Context, c leave.Credit) error {
	t.credits[c.Key()] = c
	return nil
}

func (t *tx) LockRequest(_ context.Context, id string) (leave.Request, error) {
	if r, ok := t.requests[id]; ok {
		return r, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	r, ok := t.s.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, nil
}

func (t *tx) SaveRequest(_ context.Context, r leave.Request) error {
	t.requests[r.ID] = r
	return nil
}

func (s *Store) GetCredit(_ context.Context, key leave.CreditKey) (leave.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credits[key]
	if !ok {
		return leave.Credit{}, leave.ErrNoCreditRecord
	}
	return c, nil
}

func (s *Store) ListCredits(_ context.Context, f leave.CreditFilter) ([]leave.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []leave.Credit{}
	for _, c := range s.credits {
		if f.UserID != "" && c.UserID != f.UserID {
			continue
		}
		if f.Year != nil && c.Year != *f.Year {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetRequest(_ context.Context, id string) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, nil
}

func (s *Store) ListRequests(_ context.Context, f leave.RequestFilter) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []leave.Request{}
	for _, r := range s.requests {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.StartFrom.IsZero() && r.StartDate.Before(f.StartFrom) {
			continue
		}
		if !f.StartBefore.IsZero() && !r.StartDate.Before(f.StartBefore) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) SetRequestCalendarEvent(_ context.Context, id, eventID string) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return leave.ErrNotFound
	}
	r.CalendarEventID = eventID
	s.requests[id] = r
	return nil
}

func (s *Store) ListHolidays(_ context.Context, f leave.HolidayFilter) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []leave.Holiday{}
	for _, h := range s.holidays {
		if f.Year != nil && h.Year != *f.Year {
			continue
		}
		if !f.From.IsZero() && h.Date.Before(f.From) {
			continue
		}
		if !f.Before.IsZero() && !h.Date.Before(f.Before) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Store) GetHoliday(_ context.Context, id string) (leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holidays[id]
	if !ok {
		return leave.Holiday{}, leave.ErrNotFound
	}
	return h, nil
}

func (s *Store) CreateHoliday(_ context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[h.ID] = h
	return nil
}

func (s *Store) DeleteHoliday(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holidays[id]; !ok {
		return leave.ErrNotFound
	}
	delete(s.holidays, id)
	return nil
}

func (s *Store) SetHolidayCalendarEvent(_ context.Context, id, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holidays[id]
	if !ok {
		return leave.ErrNotFound
	}
	h.CalendarEventID = eventID
	s.holidays[id] = h
	return nil
}

func (s *Store) CreateUser(_ context.Context, u users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return users.ErrEmailExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]users.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]users.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]users.User, error) {
	all, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, u := range all {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return users.ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return users.ErrNotFound
	}
	delete(s.users, id)
	for k := range s.credits {
		if k.UserID == id {
			delete(s.credits, k)
		}
	}
	for rid, r := range s.requests {
		if r.UserID == id {
			delete(s.requests, rid)
		}
	}
	return nil
}

func (s *Store) InsertAuditEvent(_ context.Context, evt audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *Store) ListAuditEvents(_ context.Context, f audit.Filter, limit, offset int) ([]audit.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := []audit.Event{}
	for i := len(s.events) - 1; i >= 0; i-- {
		evt := s.events[i]
		if f.Action != "" && evt.Action != f.Action {
			continue
		}
		if f.EntityType != "" && evt.EntityType != f.EntityType {
			continue
		}
		if f.ActorID != "" && evt.ActorID != f.ActorID {
			continue
		}
		matched = append(matched, evt)
	}
	total := len(matched)
	if offset >= total {
		return []audit.Event{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (s *Store) LoadSettings(_ context.Context) (settings.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return settings.Record{}, settings.ErrNotFound
	}
	rec := *s.settings
	rec.GoogleToken = append([]byte(nil), rec.GoogleToken...)
	return rec, nil
}

func (s *Store) SaveSettings(_ context.Context, rec settings.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.GoogleToken = append([]byte(nil), rec.GoogleToken...)
	s.settings = &rec
	return nil
}
