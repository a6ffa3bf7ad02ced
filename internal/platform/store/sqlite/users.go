package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"holidayhub/internal/domain/users"
)

const userColumns = `id, email, name, picture, role, created_at`

func (s *Store) CreateUser(ctx context.Context, u users.User) error {
	_, err := s.DB.ExecContext(ctx, `
    INSERT INTO users (`+userColumns+`)
    VALUES (?,?,?,?,?,?)
  `, u.ID, u.Email, u.Name, u.Picture, u.Role, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return users.ErrEmailExists
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (users.User, error) {
	return scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]users.User, error) {
	return listUsers(ctx, s.DB, `SELECT `+userColumns+` FROM users ORDER BY name`)
}

func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]users.User, error) {
	return listUsers(ctx, s.DB, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY name`, role)
}

func (s *Store) UpdateUserRole(ctx context.Context, id, role string) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	return rowsAffected(res, err, users.ErrNotFound)
}

// DeleteUser relies on ON DELETE CASCADE, which needs foreign_keys enabled
// on the connection.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return rowsAffected(res, err, users.ErrNotFound)
}

func scanUser(row scanner) (users.User, error) {
	var u users.User
	var created string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return users.User{}, err
	}
	return u, nil
}

func listUsers(ctx context.Context, q querier, query string, args ...any) ([]users.User, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
