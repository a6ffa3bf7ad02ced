// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"holidayhub/internal/domain/audit"
	"holidayhub/internal/domain/leave"
	"holidayhub/internal/domain/settings"
	"holidayhub/internal/domain/users"
	"holidayhub/internal/platform/store"
)

type Suite struct {
	suite.Suite
	// NewStore returns an empty backend for each test.
	NewStore func() store.Backend

	store store.Backend
	ctx   context.Context
	now   time.Time
}

func (s *Suite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.now = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
}

func (s *Suite) user(id, name, role string) users.User {
	u := users.User{ID: id, Email: id + "@example.com", Name: name, Role: role, CreatedAt: s.now}
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *Suite) credit(userID, category string, total, used float64) leave.Credit {
	c := leave.Credit{
		ID: userID + "-" + category, UserID: userID, UserName: userID, UserEmail: userID + "@example.com",
		Year: 2025, Category: category, TotalDays: total, UsedDays: used, RemainingDays: total - used,
		CreatedAt: s.now, UpdatedAt: s.now,
	}
	s.Require().NoError(s.store.InTx(s.ctx, func(tx leave.Tx) error {
		return tx.SaveCredit(s.ctx, c)
	}))
	return c
}

func (s *Suite) request(id, userID string, status leave.Status, start string, created time.Time) leave.Request {
	d, err := time.Parse(leave.DateLayout, start)
	s.Require().NoError(err)
	r := leave.Request{
		ID: id, UserID: userID, UserName: userID, UserEmail: userID + "@example.com",
		Category: leave.CategoryPaidHoliday, StartDate: d, EndDate: d.AddDate(0, 0, 1), Days: 2,
		Reason: "trip", Status: status, CreatedAt: created,
	}
	s.Require().NoError(s.store.InTx(s.ctx, func(tx leave.Tx) error {
		return tx.SaveRequest(s.ctx, r)
	}))
	return r
}

func (s *Suite) TestUsers() {
	s.user("u1", "Bob", "employee")
	s.user("u2", "Alice", "hr")

	err := s.store.CreateUser(s.ctx, users.User{ID: "u3", Email: "U1@example.com", Name: "Dup", Role: "employee", CreatedAt: s.now})
	s.ErrorIs(err, users.ErrEmailExists)

	got, err := s.store.GetUserByEmail(s.ctx, "U2@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Equal("u2", got.ID)
	s.True(got.CreatedAt.Equal(s.now))

	hr, err := s.store.ListUsersByRole(s.ctx, "hr")
	s.Require().NoError(err)
	s.Len(hr, 1)

	s.Require().NoError(s.store.UpdateUserRole(s.ctx, "u1", "hr"))
	hr, err = s.store.ListUsersByRole(s.ctx, "hr")
	s.Require().NoError(err)
	s.Len(hr, 2)

	s.ErrorIs(s.store.UpdateUserRole(s.ctx, "missing", "hr"), users.ErrNotFound)
	_, err = s.store.GetUser(s.ctx, "missing")
	s.ErrorIs(err, users.ErrNotFound)
}

func (s *Suite) TestCreditLockAndSave() {
	s.user("u1", "Bob", "employee")
	key := leave.CreditKey{UserID: "u1", Year: 2025, Category: leave.CategorySickLeave}

	err := s.store.InTx(s.ctx, func(tx leave.Tx) error {
		_, err := tx.LockCredit(s.ctx, key)
		return err
	})
	s.ErrorIs(err, leave.ErrNoCreditRecord)

	s.credit("u1", leave.CategorySickLeave, 5, 1)
	err = s.store.InTx(s.ctx, func(tx leave.Tx) error {
		c, err := tx.LockCredit(s.ctx, key)
		if err != nil {
			return err
		}
		c.UsedDays = 2.5
		c.RemainingDays = 2.5
		return tx.SaveCredit(s.ctx, c)
	})
	s.Require().NoError(err)

	got, err := s.store.GetCredit(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(5.0, got.TotalDays)
	s.Equal(2.5, got.UsedDays)
	s.Equal(2.5, got.RemainingDays)

	_, err = s.store.GetCredit(s.ctx, leave.CreditKey{UserID: "u1", Year: 2024, Category: leave.CategorySickLeave})
	s.ErrorIs(err, leave.ErrNoCreditRecord)
}

func (s *Suite) TestTxRollback() {
	s.user("u1", "Bob", "employee")
	boom := errors.New("boom")
	err := s.store.InTx(s.ctx, func(tx leave.Tx) error {
		c := leave.Credit{ID: "c1", UserID: "u1", Year: 2025, Category: leave.CategoryPaidHoliday, TotalDays: 35, RemainingDays: 35, CreatedAt: s.now, UpdatedAt: s.now}
		if err := tx.SaveCredit(s.ctx, c); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.GetCredit(s.ctx, leave.CreditKey{UserID: "u1", Year: 2025, Category: leave.CategoryPaidHoliday})
	s.ErrorIs(err, leave.ErrNoCreditRecord)
}

func (s *Suite) TestListCreditsFilter() {
	s.user("u1", "Bob", "employee")
	s.user("u2", "Alice", "employee")
	s.credit("u1", leave.CategorySickLeave, 5, 0)
	s.credit("u1", leave.CategoryPaidHoliday, 35, 0)
	s.credit("u2", leave.CategoryPaidHoliday, 35, 0)

	all, err := s.store.ListCredits(s.ctx, leave.CreditFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)

	year := 2025
	mine, err := s.store.ListCredits(s.ctx, leave.CreditFilter{UserID: "u1", Year: &year})
	s.Require().NoError(err)
	s.Len(mine, 2)

	other := 2024
	none, err := s.store.ListCredits(s.ctx, leave.CreditFilter{UserID: "u1", Year: &other})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestRequests() {
	s.user("u1", "Bob", "employee")
	s.user("u2", "Alice", "employee")
	s.request("r1", "u1", leave.StatusPending, "2025-03-10", s.now)
	s.request("r2", "u1", leave.StatusApproved, "2025-04-02", s.now.Add(time.Minute))
	s.request("r3", "u2", leave.StatusApproved, "2025-03-31", s.now.Add(2*time.Minute))

	err := s.store.InTx(s.ctx, func(tx leave.Tx) error {
		r, err := tx.LockRequest(s.ctx, "r1")
		if err != nil {
			return err
		}
		processed := s.now.Add(time.Hour)
		r.Status = leave.StatusRejected
		r.ProcessedBy = "u2"
		r.Comment = "no"
		r.ProcessedAt = &processed
		return tx.SaveRequest(s.ctx, r)
	})
	s.Require().NoError(err)

	got, err := s.store.GetRequest(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal(leave.StatusRejected, got.Status)
	s.Equal("no", got.Comment)
	s.Require().NotNil(got.ProcessedAt)
	s.True(got.ProcessedAt.Equal(s.now.Add(time.Hour)))
	s.Equal("2025-03-10", got.StartDate.Format(leave.DateLayout))
	s.Equal("2025-03-11", got.EndDate.Format(leave.DateLayout))

	mine, err := s.store.ListRequests(s.ctx, leave.RequestFilter{UserID: "u1"})
	s.Require().NoError(err)
	s.Len(mine, 2)

	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	inMarch, err := s.store.ListRequests(s.ctx, leave.RequestFilter{
		Status: leave.StatusApproved, StartFrom: march, StartBefore: march.AddDate(0, 1, 0),
	})
	s.Require().NoError(err)
	s.Require().Len(inMarch, 1)
	s.Equal("r3", inMarch[0].ID)

	s.Require().NoError(s.store.SetRequestCalendarEvent(s.ctx, "r3", "evt-9"))
	got, err = s.store.GetRequest(s.ctx, "r3")
	s.Require().NoError(err)
	s.Equal("evt-9", got.CalendarEventID)

	s.ErrorIs(s.store.SetRequestCalendarEvent(s.ctx, "missing", "x"), leave.ErrNotFound)
	_, err = s.store.GetRequest(s.ctx, "missing")
	s.ErrorIs(err, leave.ErrNotFound)
	err = s.store.InTx(s.ctx, func(tx leave.Tx) error {
		_, err := tx.LockRequest(s.ctx, "missing")
		return err
	})
	s.ErrorIs(err, leave.ErrNotFound)
}

func (s *Suite) TestDeleteUserCascades() {
	s.user("u1", "Bob", "employee")
	s.credit("u1", leave.CategoryPaidHoliday, 35, 0)
	s.request("r1", "u1", leave.StatusPending, "2025-03-10", s.now)

	s.Require().NoError(s.store.DeleteUser(s.ctx, "u1"))
	s.ErrorIs(s.store.DeleteUser(s.ctx, "u1"), users.ErrNotFound)

	credits, err := s.store.ListCredits(s.ctx, leave.CreditFilter{UserID: "u1"})
	s.Require().NoError(err)
	s.Empty(credits)
	_, err = s.store.GetRequest(s.ctx, "r1")
	s.ErrorIs(err, leave.ErrNotFound)
}

func (s *Suite) TestHolidays() {
	mk := func(id, name, day string) {
		d, err := time.Parse(leave.DateLayout, day)
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateHoliday(s.ctx, leave.Holiday{ID: id, Name: name, Date: d, Year: d.Year(), CreatedAt: s.now}))
	}
	mk("h1", "Christmas", "2025-12-25")
	mk("h2", "New Year", "2026-01-01")
	mk("h3", "Spring", "2025-03-21")

	year := 2025
	list, err := s.store.ListHolidays(s.ctx, leave.HolidayFilter{Year: &year})
	s.Require().NoError(err)
	s.Len(list, 2)

	march := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	inMarch, err := s.store.ListHolidays(s.ctx, leave.HolidayFilter{From: march, Before: march.AddDate(0, 1, 0)})
	s.Require().NoError(err)
	s.Require().Len(inMarch, 1)
	s.Equal("Spring", inMarch[0].Name)

	s.Require().NoError(s.store.SetHolidayCalendarEvent(s.ctx, "h1", "evt-1"))
	h, err := s.store.GetHoliday(s.ctx, "h1")
	s.Require().NoError(err)
	s.Equal("evt-1", h.CalendarEventID)
	s.Equal("2025-12-25", h.Date.Format(leave.DateLayout))

	s.Require().NoError(s.store.DeleteHoliday(s.ctx, "h1"))
	s.ErrorIs(s.store.DeleteHoliday(s.ctx, "h1"), leave.ErrNotFound)
	_, err = s.store.GetHoliday(s.ctx, "h1")
	s.ErrorIs(err, leave.ErrNotFound)
}

func (s *Suite) TestAuditEvents() {
	for i, action := range []string{"credit.upsert", "request.approve", "credit.adjust"} {
		evt := audit.Event{
			ID: action, ActorID: "hr1", Action: action, EntityType: "credit", EntityID: "c1",
			CreatedAt: s.now.Add(time.Duration(i) * time.Minute),
		}
		if i == 0 {
			evt.After = []byte(`{"totalDays":10}`)
		}
		s.Require().NoError(s.store.InsertAuditEvent(s.ctx, evt))
	}

	page, total, err := s.store.ListAuditEvents(s.ctx, audit.Filter{}, 2, 0)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(page, 2)
	s.Equal("credit.adjust", page[0].ID)

	filtered, total, err := s.store.ListAuditEvents(s.ctx, audit.Filter{Action: "credit.upsert"}, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(filtered, 1)
	s.JSONEq(`{"totalDays":10}`, string(filtered[0].After))
}

func (s *Suite) TestSettings() {
	_, err := s.store.LoadSettings(s.ctx)
	s.ErrorIs(err, settings.ErrNotFound)

	rec := settings.Record{EmailNotificationsEnabled: false, CalendarSyncEnabled: true, GoogleToken: []byte{1, 2, 3}, UpdatedAt: s.now}
	s.Require().NoError(s.store.SaveSettings(s.ctx, rec))
	rec.GoogleToken = nil
	rec.CalendarSyncEnabled = false
	s.Require().NoError(s.store.SaveSettings(s.ctx, rec))

	got, err := s.store.LoadSettings(s.ctx)
	s.Require().NoError(err)
	s.False(got.EmailNotificationsEnabled)
	s.False(got.CalendarSyncEnabled)
	s.Empty(got.GoogleToken)
}

func (s *Suite) TestConcurrentTransactionsSerialize() {
	s.user("u1", "Bob", "employee")
	s.credit("u1", leave.CategoryPaidHoliday, 35, 0)
	key := leave.CreditKey{UserID: "u1", Year: 2025, Category: leave.CategoryPaidHoliday}

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.InTx(s.ctx, func(tx leave.Tx) error {
				c, err := tx.LockCredit(s.ctx, key)
				if err != nil {
					return err
				}
				c.UsedDays++
				c.RemainingDays--
				return tx.SaveCredit(s.ctx, c)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	got, err := s.store.GetCredit(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(10.0, got.UsedDays)
	s.Equal(25.0, got.RemainingDays)
}
