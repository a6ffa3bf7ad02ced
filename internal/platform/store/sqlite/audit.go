package sqlite

import (
	"context"
	"database/sql"

	"holidayhub/internal/domain/audit"
)

func (s *Store) InsertAuditEvent(ctx context.Context, evt audit.Event) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO audit_events (id, actor_user_id, action, entity_type, entity_id, request_id, ip, before_json, after_json, created_at)
    VALUES (?,?,?,?,?,?,?,?,?,?)
  `, evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP,
		nullText(evt.Before), nullText(evt.After), formatTime(evt.CreatedAt))
	return err
}

func (s *Store) ListAuditEvents(ctx context.Context, f audit.Filter, limit, offset int) ([]audit.Event, int, error) {
	var where []string
	var args []any
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.ActorID != "" {
		where = append(where, "actor_user_id = ?")
		args = append(args, f.ActorID)
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM audit_events`+whereClause(where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.DB.QueryContext(ctx, `
    SELECT id, actor_user_id, action, entity_type, entity_id, request_id, ip, before_json, after_json, created_at
    FROM audit_events`+whereClause(where)+`
    ORDER BY created_at DESC
    LIMIT ? OFFSET ?
  `, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []audit.Event{}
	for rows.Next() {
		var evt audit.Event
		var before, after sql.NullString
		var created string
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &before, &after, &created); err != nil {
			return nil, 0, err
		}
		if before.Valid {
			evt.Before = []byte(before.String)
		}
		if after.Valid {
			evt.After = []byte(after.String)
		}
		if evt.CreatedAt, err = parseTime(created); err != nil {
			return nil, 0, err
		}
		out = append(out, evt)
	}
	return out, total, rows.Err()
}

func nullText(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
