package users

import "context"

type Store interface {
	// CreateUser returns ErrEmailExists when the email is taken.
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListUsersByRole(ctx context.Context, role string) ([]User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	// DeleteUser removes the user with their credits and requests.
	DeleteUser(ctx context.Context, id string) error
}
