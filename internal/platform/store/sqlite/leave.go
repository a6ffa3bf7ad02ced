package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"holidayhub/internal/domain/leave"
)

const creditColumns = `id, user_id, user_name, user_email, year, category, total_days, used_days, remaining_days, created_at, updated_at`

const requestColumns = `id, user_id, user_name, user_email, category, start_date, end_date, days, reason, status,
  processed_by, hr_comment, calendar_event_id, created_at, processed_at`

const holidayColumns = `id, name, date, year, calendar_event_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func (t *tx) LockCredit(ctx context.Context, key leave.CreditKey) (leave.Credit, error) {
	return getCredit(ctx, t.tx, key)
}

func (t *tx) SaveCredit(ctx context.Context, c leave.Credit) error {
	_, err := t.tx.ExecContext(ctx, `
    INSERT INTO holiday_credits (`+creditColumns+`)
    VALUES (?,?,?,?,?,?,?,?,?,?,?)
    ON CONFLICT (user_id, year, category) DO UPDATE SET
      user_name = excluded.user_name,
      user_email = excluded.user_email,
      total_days = excluded.total_days,
      used_days = excluded.used_days,
      remaining_days = excluded.remaining_days,
      updated_at = excluded.updated_at
  `, c.ID, c.UserID, c.UserName, c.UserEmail, c.Year, c.Category, c.TotalDays, c.UsedDays, c.RemainingDays,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	return err
}

func (t *tx) LockRequest(ctx context.Context, id string) (leave.Request, error) {
	return getRequest(ctx, t.tx, id)
}

func (t *tx) SaveRequest(ctx context.Context, r leave.Request) error {
	var processedAt any
	if r.ProcessedAt != nil {
		processedAt = formatTime(*r.ProcessedAt)
	}
	_, err := t.tx.ExecContext(ctx, `
    INSERT INTO holiday_requests (`+requestColumns+`)
    VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
    ON CONFLICT (id) DO UPDATE SET
      status = excluded.status,
      processed_by = excluded.processed_by,
      hr_comment = excluded.hr_comment,
      processed_at = excluded.processed_at
  `, r.ID, r.UserID, r.UserName, r.UserEmail, r.Category, formatDate(r.StartDate), formatDate(r.EndDate), r.Days,
		r.Reason, string(r.Status), r.ProcessedBy, r.Comment, r.CalendarEventID, formatTime(r.CreatedAt), processedAt)
	return err
}

func (s *Store) GetCredit(ctx context.Context, key leave.CreditKey) (leave.Credit, error) {
	return getCredit(ctx, s.DB, key)
}

func (s *Store) ListCredits(ctx context.Context, f leave.CreditFilter) ([]leave.Credit, error) {
	var where []string
	var args []any
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *f.Year)
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+creditColumns+` FROM holiday_credits`+whereClause(where), args...)
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
	return getRequest(ctx, s.DB, id)
}

func (s *Store) ListRequests(ctx context.Context, f leave.RequestFilter) ([]leave.Request, error) {
	var where []string
	var args []any
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.StartFrom.IsZero() {
		where = append(where, "start_date >= ?")
		args = append(args, formatDate(f.StartFrom))
	}
	if !f.StartBefore.IsZero() {
		where = append(where, "start_date < ?")
		args = append(args, formatDate(f.StartBefore))
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+requestColumns+` FROM holiday_requests`+whereClause(where)+` ORDER BY created_at DESC`, args...)
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
	res, err := s.DB.ExecContext(ctx, `UPDATE holiday_requests SET calendar_event_id = ? WHERE id = ?`, eventID, id)
	return rowsAffected(res, err, leave.ErrNotFound)
}

func (s *Store) ListHolidays(ctx context.Context, f leave.HolidayFilter) ([]leave.Holiday, error) {
	var where []string
	var args []any
	if f.Year != nil {
		where = append(where, "year = ?")
		args = append(args, *f.Year)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, formatDate(f.From))
	}
	if !f.Before.IsZero() {
		where = append(where, "date < ?")
		args = append(args, formatDate(f.Before))
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+holidayColumns+` FROM public_holidays`+whereClause(where)+` ORDER BY date`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []leave.Holiday{}
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) GetHoliday(ctx context.Context, id string) (leave.Holiday, error) {
	h, err := scanHoliday(s.DB.QueryRowContext(ctx, `SELECT `+holidayColumns+` FROM public_holidays WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Holiday{}, leave.ErrNotFound
	}
	return h, err
}

func (s *Store) CreateHoliday(ctx context.Context, h leave.Holiday) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO public_holidays (`+holidayColumns+`)
    VALUES (?,?,?,?,?,?)
  `, h.ID, h.Name, formatDate(h.Date), h.Year, h.CalendarEventID, formatTime(h.CreatedAt))
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM public_holidays WHERE id = ?`, id)
	return rowsAffected(res, err, leave.ErrNotFound)
}

func (s *Store) SetHolidayCalendarEvent(ctx context.Context, id, eventID string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE public_holidays SET calendar_event_id = ? WHERE id = ?`, eventID, id)
	return rowsAffected(res, err, leave.ErrNotFound)
}

func getCredit(ctx context.Context, q querier, key leave.CreditKey) (leave.Credit, error) {
	row := q.QueryRowContext(ctx, `
    SELECT `+creditColumns+`
    FROM holiday_credits
    WHERE user_id = ? AND year = ? AND category = ?
  `, key.UserID, key.Year, key.Category)
	c, err := scanCredit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Credit{}, leave.ErrNoCreditRecord
	}
	return c, err
}

func getRequest(ctx context.Context, q querier, id string) (leave.Request, error) {
	r, err := scanRequest(q.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM holiday_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Request{}, leave.ErrNotFound
	}
	return r, err
}

func scanCredit(row scanner) (leave.Credit, error) {
	var c leave.Credit
	var created, updated string
	if err := row.Scan(&c.ID, &c.UserID, &c.UserName, &c.UserEmail, &c.Year, &c.Category,
		&c.TotalDays, &c.UsedDays, &c.RemainingDays, &created, &updated); err != nil {
		return leave.Credit{}, err
	}
	var err error
	if c.CreatedAt, err = parseTime(created); err != nil {
		return leave.Credit{}, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return leave.Credit{}, err
	}
	return c, nil
}

func scanRequest(row scanner) (leave.Request, error) {
	var r leave.Request
	var status, start, end, created string
	var processed sql.NullString
	if err := row.Scan(&r.ID, &r.UserID, &r.UserName, &r.UserEmail, &r.Category, &start, &end, &r.Days, &r.Reason,
		&status, &r.ProcessedBy, &r.Comment, &r.CalendarEventID, &created, &processed); err != nil {
		return leave.Request{}, err
	}
	r.Status = leave.Status(status)
	var err error
	if r.StartDate, err = parseDate(start); err != nil {
		return leave.Request{}, err
	}
	if r.EndDate, err = parseDate(end); err != nil {
		return leave.Request{}, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return leave.Request{}, err
	}
	if processed.Valid {
		at, err := parseTime(processed.String)
		if err != nil {
			return leave.Request{}, err
		}
		r.ProcessedAt = &at
	}
	return r, nil
}

func scanHoliday(row scanner) (leave.Holiday, error) {
	var h leave.Holiday
	var day, created string
	if err := row.Scan(&h.ID, &h.Name, &day, &h.Year, &h.CalendarEventID, &created); err != nil {
		return leave.Holiday{}, err
	}
	var err error
	if h.Date, err = parseDate(day); err != nil {
		return leave.Holiday{}, err
	}
	if h.CreatedAt, err = parseTime(created); err != nil {
		return leave.Holiday{}, err
	}
	return h, nil
}
