package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"holidayhub/internal/domain/settings"
)

func (s *Store) LoadSettings(ctx context.Context) (settings.Record, error) {
	var rec settings.Record
	err := s.DB.QueryRow(ctx, `
    SELECT email_notifications_enabled, calendar_sync_enabled, google_token, updated_at
    FROM app_settings
    WHERE id = 1
  `).Scan(&rec.EmailNotificationsEnabled, &rec.CalendarSyncEnabled, &rec.GoogleToken, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return settings.Record{}, settings.ErrNotFound
	}
	return rec, err
}

func (s *Store) SaveSettings(ctx context.Context, rec settings.Record) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO app_settings (id, email_notifications_enabled, calendar_sync_enabled, google_token, updated_at)
    VALUES (1, $1, $2, $3, $4)
    ON CONFLICT (id) DO UPDATE SET
      email_notifications_enabled = EXCLUDED.email_notifications_enabled,
      calendar_sync_enabled = EXCLUDED.calendar_sync_enabled,
      google_token = EXCLUDED.google_token,
      updated_at = EXCLUDED.updated_at
  `, rec.EmailNotificationsEnabled, rec.CalendarSyncEnabled, rec.GoogleToken, rec.UpdatedAt)
	return err
}
