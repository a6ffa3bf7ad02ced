package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"holidayhub/internal/domain/leave"
)

const creditColumns = `id, user_id, user_name, user_email, year, category, total_days, used_days, remaining_days, created_at, updated_at`

const requestColumns = `id, user_id, user_name, user_email, category, start_date, end_date, days, reason, status,
  processed_by, hr_comment, calendar_event_id, created_at, processed_at`

const holidayColumns = `id, name, date, year, calendar_event_id, created_at`

type tx struct {
	tx pgx.Tx
}

func (s *Store) InTx(ctx context.Context, fn func(leave.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(t pgx.Tx) error {
		return fn(&tx{tx: t})
	})
}

// LockCredit takes a transaction-scoped advisory lock on the key before the
// row lock so that concurrent creators of a missing record also serialize.
func (t *tx) LockCredit(ctx context.Context, key leave.CreditKey) (leave.Credit, error) {
	if _, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key.String()); err != nil {
		return leave.Credit{}, fmt.Errorf("lock credit %s: %w", key, err)
	}
	row := t.tx.QueryRow(ctx, `
    SELECT `+creditColumns+`
    FROM holiday_credits
    WHERE user_id = $1 AND year = $2 AND category = $3
    FOR UPDATE
  `, key.UserID, key.Year, key.Category)
	c, err := scanCredit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.Credit{}, leave.ErrNoCreditRecord
	}
	return c, err
}

func (t *tx) SaveCredit(ctx context.Context, c leave.Credit) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO holiday_credits (`+creditColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    ON CONFLICT (user_id, year, category) DO UPDATE SET
      user_name = EXCLUDED.user_name,
      user_email = EXCLUDED.user_email,
      total_days = EXCLUDED.total_days,
      used_days = EXCLUDED.used_days,
      remaining_days = EXCLUDED.remaining_days,
      updated_at = EXCLUDED.updated_at
  `, c.ID, c.UserID, c.UserName, c.UserEmail, c.Year, c.Category, c.TotalDays, c.UsedDays, c.RemainingDays, c.CreatedAt, c.UpdatedAt)
	return err
}

func (t *tx) LockRequest(ctx context.Context, id string) (leave.Request, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM holiday_requests WHERE id = $1 FOR UPDATE`, id)
	r, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, err
}

func (t *tx) SaveRequest(ctx context.Context, r leave.Request) error {
	_, err := t.tx.Exec(ctx, `
    INSERT INTO holiday_requests (`+requestColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    ON CONFLICT (id) DO UPDATE SET
      status = EXCLUDED.status,
      processed_by = EXCLUDED.processed_by,
      hr_comment = EXCLUDED.hr_comment,
      processed_at = EXCLUDED.processed_at
  `, r.ID, r.UserID, r.UserName, r.UserEmail, r.Category, r.StartDate, r.EndDate, r.Days, r.Reason, string(r.Status),
		r.ProcessedBy, r.Comment, r.CalendarEventID, r.CreatedAt, r.ProcessedAt)
	return err
}

func (s *Store) GetCredit(ctx context.Context, key leave.CreditKey) (leave.Credit, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+creditColumns+`
    FROM holiday_credits
    WHERE user_id = $1 AND year = $2 AND category = $3
  `, key.UserID, key.Year, key.Category)
	c, err := scanCredit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.Credit{}, leave.ErrNoCreditRecord
	}
	return c, err
}

func (s *Store) ListCredits(ctx context.Context, f leave.CreditFilter) ([]leave.Credit, error) {
	var where []string
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Year != nil {
		args = append(args, *f.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}
	rows, err := s.DB.Query(ctx, `SELECT `+creditColumns+` FROM holiday_credits`+whereClause(where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []leave.Credit{}
	for rows.Next() {
		c, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, id string) (leave.Request, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM holiday_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.Request, error) {
	var where []string
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.StartFrom.IsZero() {
		args = append(args, f.StartFrom)
		where = append(where, fmt.Sprintf("start_date >= $%d", len(args)))
	}
	if !f.StartBefore.IsZero() {
		args = append(args, f.StartBefore)
		where = append(where, fmt.Sprintf("start_date < $%d", len(args)))
	}
	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+` FROM holiday_requests`+whereClause(where)+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []leave.Request{}
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SetRequestCalendarEvent(ctx context.Context, id, eventID string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE holiday_requests SET calendar_event_id = $1 WHERE id = $2`, eventID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *Store) ListHolidays(ctx context.Context, f leave.HolidayFilter) ([]leave.Holiday, error) {
	var where []string
	var args []any
	if f.Year != nil {
		args = append(args, *f.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if !f.Before.IsZero() {
		args = append(args, f.Before)
		where = append(where, fmt.Sprintf("date < $%d", len(args)))
	}
	rows, err := s.DB.Query(ctx, `SELECT `+holidayColumns+` FROM public_holidays`+whereClause(where)+` ORDER BY date`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []leave.Holiday{}
	for rows.Next() {
		var h leave.Holiday
		if err := rows.Scan(&h.ID, &h.Name, &h.Date, &h.Year, &h.CalendarEventID, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) GetHoliday(ctx context.Context, id string) (leave.Holiday, error) {
	var h leave.Holiday
	err := s.DB.QueryRow(ctx, `SELECT `+holidayColumns+` FROM public_holidays WHERE id = $1`, id).
		Scan(&h.ID, &h.Name, &h.Date, &h.Year, &h.CalendarEventID, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.Holiday{}, leave.ErrNotFound
	}
	return h, err
}

func (s *Store) CreateHoliday(ctx context.Context, h leave.Holiday) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO public_holidays (`+holidayColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, h.ID, h.Name, h.Date, h.Year, h.CalendarEventID, h.CreatedAt)
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM public_holidays WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *Store) SetHolidayCalendarEvent(ctx context.Context, id, eventID string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE public_holidays SET calendar_event_id = $1 WHERE id = $2`, eventID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func scanCredit(row pgx.Row) (leave.Credit, error) {
	var c leave.Credit
	err := row.Scan(&c.ID, &c.UserID, &c.UserName, &c.UserEmail, &c.Year, &c.Category,
		&c.TotalDays, &c.UsedDays, &c.RemainingDays, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanRequest(row pgx.Row) (leave.Request, error) {
	var r leave.Request
	var status string
	err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.UserEmail, &r.Category, &r.StartDate, &r.EndDate,
		&r.Days, &r.Reason, &status, &r.ProcessedBy, &r.Comment, &r.CalendarEventID, &r.CreatedAt, &r.ProcessedAt)
	r.Status = leave.Status(status)
	return r, err
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
