package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"holidayhub/internal/domain/auth"
	"holidayhub/internal/domain/leave"
)

var (
	ErrNotFound    = fmt.Errorf("user %w", leave.ErrNotFound)
	ErrEmailExists = errors.New("email already registered")
	ErrInvalidRole = errors.New("invalid role")
	ErrInvalidUser = errors.New("invalid user")
	ErrSelfDelete  = errors.New("cannot delete yourself")
)

// Provisioner creates the default credit allotment for a person.
type Provisioner interface {
	EnsureDefaults(ctx context.Context, person leave.Person, year int) (int, error)
}

type Service struct {
	Store       Store
	Provisioner Provisioner
	Now         func() time.Time
}

func NewService(store Store, provisioner Provisioner) *Service {
	return &Service{Store: store, Provisioner: provisioner, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) Create(ctx context.Context, email, name, role string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if role == "" {
		role = auth.RoleEmployee
	}
	if !auth.ValidRole(role) {
		return User{}, ErrInvalidRole
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("%w: invalid email", ErrInvalidUser)
	}
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}

	u := User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return User{}, err
	}
	if s.Provisioner != nil {
		if _, err := s.Provisioner.EnsureDefaults(ctx, personOf(u), s.now().Year()); err != nil {
			return User{}, fmt.Errorf("provision credits: %w", err)
		}
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.Store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	list, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	col := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(list, func(i, j int) bool {
		return col.CompareString(list[i].Name, list[j].Name) < 0
	})
	return list, nil
}

func (s *Service) UpdateRole(ctx context.Context, id, role string) (User, error) {
	if !auth.ValidRole(role) {
		return User{}, ErrInvalidRole
	}
	if err := s.Store.UpdateUserRole(ctx, id, role); err != nil {
		return User{}, err
	}
	return s.Store.GetUser(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDelete
	}
	return s.Store.DeleteUser(ctx, id)
}

// ProvisionYear ensures default credits for every user in year.
func (s *Service) ProvisionYear(ctx context.Context, year int) (int, error) {
	if s.Provisioner == nil {
		return 0, nil
	}
	list, err := s.Store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	var errs []error
	for _, u := range list {
		n, err := s.Provisioner.EnsureDefaults(ctx, personOf(u), year)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
			continue
		}
		total += n
	}
	if total > 0 {
		slog.Info("provisioned default credits", "year", year, "records", total)
	}
	return total, errors.Join(errs...)
}

// ProvisionCurrentYear is the recurring job body.
func (s *Service) ProvisionCurrentYear(ctx context.Context) error {
	_, err := s.ProvisionYear(ctx, s.now().Year())
	return err
}

// Person implements leave.Directory.
func (s *Service) Person(ctx context.Context, userID string) (leave.Person, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return leave.Person{}, err
	}
	return personOf(u), nil
}

func (s *Service) HRContacts(ctx context.Context) ([]leave.Person, error) {
	list, err := s.Store.ListUsersByRole(ctx, auth.RoleHR)
	if err != nil {
		return nil, err
	}
	out := make([]leave.Person, 0, len(list))
	for _, u := range list {
		out = append(out, personOf(u))
	}
	return out, nil
}

func personOf(u User) leave.Person {
	return leave.Person{ID: u.ID, Name: u.Name, Email: u.Email}
}
