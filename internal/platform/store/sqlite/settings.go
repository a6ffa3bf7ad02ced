package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"holidayhub/internal/domain/settings"
)

func (s *Store) LoadSettings(ctx context.Context) (settings.Record, error) {
	var rec settings.Record
	var email, calendar int
	var updated string
	err := s.DB.QueryRowContext(ctx, `
    SELECT email_notifications_enabled, calendar_sync_enabled, google_token, updated_at
    FROM app_settings
    WHERE id = 1
  `).Scan(&email, &calendar, &rec.GoogleToken, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Record{}, settings.ErrNotFound
	}
	if err != nil {
		return settings.Record{}, err
	}
	rec.EmailNotificationsEnabled = email != 0
	rec.CalendarSyncEnabled = calendar != 0
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return settings.Record{}, err
	}
	return rec, nil
}

func (s *Store) SaveSettings(ctx context.Context, rec settings.Record) error {
	var token any
	if len(rec.GoogleToken) > 0 {
		token = rec.GoogleToken
	}
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO app_settings (id, email_notifications_enabled, calendar_sync_enabled, google_token, updated_at)
    VALUES (1, ?, ?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET
      email_notifications_enabled = excluded.email_notifications_enabled,
      calendar_sync_enabled = excluded.calendar_sync_enabled,
      google_token = excluded.google_token,
      updated_at = excluded.updated_at
  `, boolInt(rec.EmailNotificationsEnabled), boolInt(rec.CalendarSyncEnabled), token, formatTime(rec.UpdatedAt))
	return err
}
