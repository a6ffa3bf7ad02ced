package leave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
)

func submit(t *testing.T, h *harness, p leave.Person, category string, days float64) leave.Request {
	t.Helper()
	req, err := h.svc.Submit(context.Background(), p, leave.SubmitInput{
		Category:  category,
		StartDate: date("2025-03-10"),
		EndDate:   date("2025-03-14"),
		Days:      days,
		Reason:    "family trip",
	})
	require.NoError(t, err)
	return req
}

func TestSubmitApproveConsumesCredit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")

	req := submit(t, h, alice, leave.CategoryPaidHoliday, 5)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, "alice", req.UserName)
	assert.Equal(t, "alice@example.com", req.UserEmail)
	assert.Equal(t, 35.0, h.credit(t, alice, leave.CategoryPaidHoliday).RemainingDays, "submission reserves nothing")

	decided, err := h.svc.Approve(ctx, hr, req.ID, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, decided.Status)
	assert.Equal(t, hr.ID, decided.ProcessedBy)
	assert.Equal(t, "enjoy", decided.Comment)
	require.NotNil(t, decided.ProcessedAt)

	c := h.credit(t, alice, leave.CategoryPaidHoliday)
	assert.Equal(t, 35.0, c.TotalDays)
	assert.Equal(t, 5.0, c.UsedDays)
	assert.Equal(t, 30.0, c.RemainingDays)

	_, err = h.svc.Approve(ctx, hr, req.ID, "")
	assert.ErrorIs(t, err, leave.ErrAlreadyProcessed)
	assert.Equal(t, 30.0, h.credit(t, alice, leave.CategoryPaidHoliday).RemainingDays)
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	alice := h.employee(t, "alice")
	ctx := context.Background()

	cases := []struct {
		name string
		in   leave.SubmitInput
		want error
	}{
		{"unknown category", leave.SubmitInput{Category: "vacation", StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), Days: 1}, leave.ErrInvalidCategory},
		{"reversed dates", leave.SubmitInput{Category: leave.CategoryPaidHoliday, StartDate: date("2025-03-12"), EndDate: date("2025-03-10"), Days: 1}, leave.ErrInvalidRequest},
		{"missing dates", leave.SubmitInput{Category: leave.CategoryPaidHoliday, Days: 1}, leave.ErrInvalidRequest},
		{"zero days", leave.SubmitInput{Category: leave.CategoryPaidHoliday, StartDate: date("2025-03-10"), EndDate: date("2025-03-10")}, leave.ErrInvalidRequest},
		{"negative days", leave.SubmitInput{Category: leave.CategoryPaidHoliday, StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), Days: -1}, leave.ErrInvalidRequest},
		{"over balance", leave.SubmitInput{Category: leave.CategorySickLeave, StartDate: date("2025-03-10"), EndDate: date("2025-03-20"), Days: 6}, leave.ErrInsufficientBalance},
		{"unpaid has no allotment", leave.SubmitInput{Category: leave.CategoryUnpaidLeave, StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), Days: 1}, leave.ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Submit(ctx, alice, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	all, err := h.svc.ListAllRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitWithoutCreditRecord(t *testing.T) {
	h := newHarness(t)
	ghost := leave.Person{ID: "ghost", Name: "Ghost", Email: "ghost@example.com"}

	_, err := h.svc.Submit(context.Background(), ghost, leave.SubmitInput{
		Category: leave.CategoryPaidHoliday, StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), Days: 1,
	})
	assert.ErrorIs(t, err, leave.ErrNoCreditRecord)
	assert.Contains(t, err.Error(), "Paid Holidays")
}

func TestSubmitInsufficientReportsBalance(t *testing.T) {
	h := newHarness(t)
	alice := h.employee(t, "alice")

	_, err := h.svc.Submit(context.Background(), alice, leave.SubmitInput{
		Category: leave.CategoryPaidHoliday, StartDate: date("2025-03-10"), EndDate: date("2025-04-30"), Days: 40,
	})
	ib, ok := isInsufficient(err)
	require.True(t, ok)
	assert.Equal(t, 35.0, ib.Available)
	assert.Equal(t, 40.0, ib.Requested)
}

func TestSubmitNotifiesEveryHRUser(t *testing.T) {
	h := newHarness(t)
	h.user(t, "helen", auth.RoleHR)
	h.user(t, "hugo", auth.RoleHR)
	alice := h.employee(t, "alice")

	submit(t, h, alice, leave.CategoryPaidHoliday, 2)
	h.jobs.Wait()

	mails := h.notifier.mails()
	require.Len(t, mails, 2)
	recipients := []string{mails[0].To, mails[1].To}
	assert.ElementsMatch(t, []string{"helen@example.com", "hugo@example.com"}, recipients)
	assert.Equal(t, "New Paid Holidays Request from alice", mails[0].Subject)
	assert.Contains(t, mails[0].Body, "2025-03-10 to 2025-03-14")
}

func TestNotifierFailureDoesNotFailSubmit(t *testing.T) {
	h := newHarness(t)
	h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	h.notifier.err = errors.New("smtp down")

	req := submit(t, h, alice, leave.CategoryPaidHoliday, 2)
	h.jobs.Wait()

	stored, err := h.svc.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
}

func TestApproveCreatesCalendarEvent(t *testing.T) {
	h := newHarness(t)
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	req := submit(t, h, alice, leave.CategoryPaidHoliday, 5)

	_, err := h.svc.Approve(context.Background(), hr, req.ID, "")
	require.NoError(t, err)
	h.jobs.Wait()

	require.Len(t, h.calendar.created, 1)
	evt := h.calendar.created[0]
	assert.Equal(t, "alice - Paid Holidays", evt.Title)
	assert.Equal(t, date("2025-03-10"), evt.Start)
	assert.Equal(t, date("2025-03-14"), evt.End)

	stored, err := h.svc.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", stored.CalendarEventID)

	var approvedMail bool
	for _, m := range h.notifier.mails() {
		if m.To == "alice@example.com" && m.Subject == "Your Paid Holidays Request has been Approved" {
			approvedMail = true
		}
	}
	assert.True(t, approvedMail)
}

func TestCalendarFailureKeepsApproval(t *testing.T) {
	h := newHarness(t)
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	req := submit(t, h, alice, leave.CategoryPaidHoliday, 5)
	h.calendar.err = errors.New("calendar unavailable")

	_, err := h.svc.Approve(context.Background(), hr, req.ID, "")
	require.NoError(t, err)
	h.jobs.Wait()

	stored, err := h.svc.GetRequest(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, stored.Status)
	assert.Empty(t, stored.CalendarEventID)
	assert.Equal(t, 30.0, h.credit(t, alice, leave.CategoryPaidHoliday).RemainingDays)
}

func TestApproveRechecksBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	req := submit(t, h, alice, leave.CategoryPaidHoliday, 30)

	_, err := h.svc.Adjust(ctx, leave.CreditKey{UserID: alice.ID, Year: 2025, Category: leave.CategoryPaidHoliday}, -10, "")
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, hr, req.ID, "")
	ib, ok := isInsufficient(err)
	require.True(t, ok)
	assert.Equal(t, 25.0, ib.Available)

	stored, err := h.svc.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
	assert.Equal(t, 25.0, h.credit(t, alice, leave.CategoryPaidHoliday).RemainingDays)
}

func TestApproveUsesProcessingYear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	req := submit(t, h, alice, leave.CategoryPaidHoliday, 5)

	h.clock.Advance(365 * 24 * time.Hour)
	_, err := h.svc.Approve(ctx, hr, req.ID, "")
	assert.ErrorIs(t, err, leave.ErrNoCreditRecord)

	_, err = h.svc.EnsureDefaults(ctx, alice, 2026)
	require.NoError(t, err)
	_, err = h.svc.Approve(ctx, hr, req.ID, "")
	require.NoError(t, err)

	c2026, err := h.svc.Balance(ctx, alice.ID, 2026, leave.CategoryPaidHoliday)
	require.NoError(t, err)
	assert.Equal(t, 30.0, c2026.RemainingDays)
	c2025, err := h.svc.Balance(ctx, alice.ID, 2025, leave.CategoryPaidHoliday)
	require.NoError(t, err)
	assert.Equal(t, 35.0, c2025.RemainingDays)
}

func TestRejectLeavesLedgerUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	req := submit(t, h, alice, leave.CategoryPaidHoliday, 5)

	decided, err := h.svc.Reject(ctx, hr, req.ID, "busy period")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, decided.Status)
	assert.Equal(t, "busy period", decided.Comment)
	assert.Equal(t, 35.0, h.credit(t, alice, leave.CategoryPaidHoliday).RemainingDays)

	_, err = h.svc.Approve(ctx, hr, req.ID, "")
	assert.ErrorIs(t, err, leave.ErrAlreadyProcessed)
	_, err = h.svc.Reject(ctx, hr, req.ID, "")
	assert.ErrorIs(t, err, leave.ErrAlreadyProcessed)

	h.jobs.Wait()
	assert.Empty(t, h.calendar.created)
}

func TestDecideUnknownRequest(t *testing.T) {
	h := newHarness(t)
	hr := h.user(t, "helen", auth.RoleHR)

	_, err := h.svc.Approve(context.Background(), hr, "missing", "")
	assert.ErrorIs(t, err, leave.ErrNotFound)
	_, err = h.svc.Reject(context.Background(), hr, "missing", "")
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestListsAreNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	bob := h.employee(t, "bob")

	first := submit(t, h, alice, leave.CategoryPaidHoliday, 1)
	h.clock.Advance(time.Minute)
	second := submit(t, h, bob, leave.CategorySickLeave, 1)
	h.clock.Advance(time.Minute)
	third := submit(t, h, alice, leave.CategoryParentalLeave, 1)

	_, err := h.svc.Approve(ctx, hr, second.ID, "")
	require.NoError(t, err)

	all, err := h.svc.ListAllRequests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := h.svc.ListRequestsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Equal(t, "Parental Leave", mine[0].CategoryName)

	pending, err := h.svc.ListPendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, third.ID, pending[0].ID)
	assert.Equal(t, first.ID, pending[1].ID)
}

func TestConcurrentApprovalsCannotOverdraw(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	a := submit(t, h, alice, leave.CategoryPaidHoliday, 20)
	b := submit(t, h, alice, leave.CategoryPaidHoliday, 20)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = h.svc.Approve(ctx, hr, id, "")
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	}
	assert.Equal(t, 1, succeeded)

	c := h.credit(t, alice, leave.CategoryPaidHoliday)
	assert.Equal(t, 20.0, c.UsedDays)
	assert.Equal(t, 15.0, c.RemainingDays)
}

func TestConcurrentApprovalOfSameRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	hr := h.user(t, "helen", auth.RoleHR)
	alice := h.employee(t, "alice")
	req := submit(t, h, alice, leave.CategoryPaidHoliday, 5)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Approve(ctx, hr, req.ID, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, leave.ErrAlreadyProcessed)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 30.0, h.credit(t, alice, leave.CategoryPaidHoliday).RemainingDays)
}

func TestConcurrentAdjustmentsAreSerialized(t *testing.T) {
	h := newHarness(t)
	alice := h.employee(t, "alice")
	key := leave.CreditKey{UserID: alice.ID, Year: 2025, Category: leave.CategoryPaidHoliday}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Adjust(context.Background(), key, -1, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c := h.credit(t, alice, leave.CategoryPaidHoliday)
	assert.Equal(t, 15.0, c.RemainingDays)
	assert.Equal(t, 20.0, c.UsedDays)
}
