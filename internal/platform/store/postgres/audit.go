package postgres

import (
	"context"
	"fmt"

	"holidayhub/internal/domain/audit"
)

func (s *Store) InsertAuditEvent(ctx context.Context, evt audit.Event) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (id, actor_user_id, action, entity_type, entity_id, request_id, ip, before_json, after_json, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP, nullJSON(evt.Before), nullJSON(evt.After), evt.CreatedAt)
	return err
}

func (s *Store) ListAuditEvents(ctx context.Context, f audit.Filter, limit, offset int) ([]audit.Event, int, error) {
	var where []string
	var args []any
	if f.Action != "" {
		args = append(args, f.Action)
		where = append(where, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if f.ActorID != "" {
		args = append(args, f.ActorID)
		where = append(where, fmt.Sprintf("actor_user_id = $%d", len(args)))
	}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM audit_events`+whereClause(where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, actor_user_id, action, entity_type, entity_id, request_id, ip, before_json::text, after_json::text, created_at
    FROM audit_events` + whereClause(where) +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []audit.Event{}
	for rows.Next() {
		var evt audit.Event
		var before, after *string
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &before, &after, &evt.CreatedAt); err != nil {
			return nil, 0, err
		}
		if before != nil {
			evt.Before = []byte(*before)
		}
		if after != nil {
			evt.After = []byte(*after)
		}
		out = append(out, evt)
	}
	return out, total, rows.Err()
}
