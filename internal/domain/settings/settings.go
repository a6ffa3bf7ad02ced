package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var ErrNotFound = errors.New("settings not found")

type GoogleToken struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiry"`
}

type Settings struct {
	EmailNotificationsEnabled bool         `json:"emailNotificationsEnabled"`
	CalendarSyncEnabled       bool         `json:"calendarSyncEnabled"`
	GoogleToken               *GoogleToken `json:"-"`
	UpdatedAt                 time.Time    `json:"updatedAt"`
}

func (s Settings) GoogleConnected() bool {
	return s.GoogleToken != nil && (s.GoogleToken.RefreshToken != "" || s.GoogleToken.AccessToken != "")
}

func Defaults() Settings {
	return Settings{EmailNotificationsEnabled: true, CalendarSyncEnabled: true}
}

// Record is the persisted form. GoogleToken holds the sealed token JSON.
type Record struct {
	EmailNotificationsEnabled bool
	CalendarSyncEnabled       bool
	GoogleToken               []byte
	UpdatedAt                 time.Time
}

type Store interface {
	// LoadSettings returns ErrNotFound before the first save.
	LoadSettings(ctx context.Context) (Record, error)
	SaveSettings(ctx context.Context, rec Record) error
}

type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type Patch struct {
	EmailNotificationsEnabled *bool
	CalendarSyncEnabled       *bool
}

// Service keeps an in-memory snapshot that readers use without touching the
// store. Writers are serialized and republish the snapshot after each save.
type Service struct {
	store   Store
	sealer  Sealer
	now     func() time.Time
	mu      sync.Mutex
	current atomic.Pointer[Settings]
}

func New(store Store, sealer Sealer) *Service {
	s := &Service{store: store, sealer: sealer, now: time.Now}
	d := Defaults()
	s.current.Store(&d)
	return s
}

func (s *Service) Current() Settings {
	return *s.current.Load()
}

func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load(ctx)
	return err
}

func (s *Service) Update(ctx context.Context, patch Patch) (Settings, error) {
	return s.mutate(ctx, func(rec *Record) error {
		if patch.EmailNotificationsEnabled != nil {
			rec.EmailNotificationsEnabled = *patch.EmailNotificationsEnabled
		}
		if patch.CalendarSyncEnabled != nil {
			rec.CalendarSyncEnabled = *patch.CalendarSyncEnabled
		}
		return nil
	})
}

func (s *Service) SaveGoogleToken(ctx context.Context, token GoogleToken) (Settings, error) {
	if token.AccessToken == "" && token.RefreshToken == "" {
		return Settings{}, errors.New("google token is empty")
	}
	payload, err := json.Marshal(token)
	if err != nil {
		return Settings{}, err
	}
	sealed, err := s.sealer.Seal(payload)
	if err != nil {
		return Settings{}, fmt.Errorf("seal google token: %w", err)
	}
	return s.mutate(ctx, func(rec *Record) error {
		rec.GoogleToken = sealed
		return nil
	})
}

func (s *Service) DisconnectGoogle(ctx context.Context) (Settings, error) {
	return s.mutate(ctx, func(rec *Record) error {
		rec.GoogleToken = nil
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, apply func(*Record) error) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.loadRecord(ctx)
	if err != nil {
		return Settings{}, err
	}
	if err := apply(&rec); err != nil {
		return Settings{}, err
	}
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.SaveSettings(ctx, rec); err != nil {
		return Settings{}, err
	}
	return s.load(ctx)
}

func (s *Service) loadRecord(ctx context.Context) (Record, error) {
	rec, err := s.store.LoadSettings(ctx)
	if errors.Is(err, ErrNotFound) {
		d := Defaults()
		return Record{EmailNotificationsEnabled: d.EmailNotificationsEnabled, CalendarSyncEnabled: d.CalendarSyncEnabled}, nil
	}
	return rec, err
}

// load must be called with mu held.
func (s *Service) load(ctx context.Context) (Settings, error) {
	rec, err := s.loadRecord(ctx)
	if err != nil {
		return Settings{}, err
	}
	out := Settings{
		EmailNotificationsEnabled: rec.EmailNotificationsEnabled,
		CalendarSyncEnabled:       rec.CalendarSyncEnabled,
		UpdatedAt:                 rec.UpdatedAt,
	}
	if len(rec.GoogleToken) > 0 {
		plain, err := s.sealer.Open(rec.GoogleToken)
		if err != nil {
			return Settings{}, fmt.Errorf("open google token: %w", err)
		}
		var token GoogleToken
		if err := json.Unmarshal(plain, &token); err != nil {
			return Settings{}, fmt.Errorf("decode google token: %w", err)
		}
		out.GoogleToken = &token
	}
	s.current.Store(&out)
	return out, nil
}
