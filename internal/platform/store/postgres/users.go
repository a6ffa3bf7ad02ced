package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"holidayhub/internal/domain/users"
)

const userColumns = `id, email, name, picture, role, created_at`

func (s *Store) CreateUser(ctx context.Context, u users.User) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO users (`+userColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, u.ID, u.Email, u.Name, u.Picture, u.Role, u.CreatedAt)
	if isUniqueViolation(err) {
		return users.ErrEmailExists
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (users.User, error) {
	return getUser(ctx, s.DB, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return getUser(ctx, s.DB, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (s *Store) ListUsers(ctx context.Context) ([]users.User, error) {
	return listUsers(ctx, s.DB, `SELECT `+userColumns+` FROM users ORDER BY name`)
}

func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]users.User, error) {
	return listUsers(ctx, s.DB, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name`, role)
}

func (s *Store) UpdateUserRole(ctx context.Context, id, role string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

// DeleteUser relies on ON DELETE CASCADE for credits and requests.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func getUser(ctx context.Context, q querier, query string, args ...any) (users.User, error) {
	var u users.User
	err := q.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	return u, err
}

func listUsers(ctx context.Context, q querier, query string, args ...any) ([]users.User, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []users.User{}
	for rows.Next() {
		var u users.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
