package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayhub/internal/domain/settings"
	"holidayhub/internal/platform/crypto"
	"holidayhub/internal/platform/store/memory"
)

func newService(t *testing.T) (*settings.Service, *memory.Store) {
	t.Helper()
	sealer, err := crypto.New("0123456789abcdef0123456789abcdef", "settings")
	require.NoError(t, err)
	store := memory.New()
	svc := settings.New(store, sealer)
	require.NoError(t, svc.Refresh(context.Background()))
	return svc, store
}

func TestDefaultsBeforeFirstSave(t *testing.T) {
	svc, _ := newService(t)
	cur := svc.Current()
	assert.True(t, cur.EmailNotificationsEnabled)
	assert.True(t, cur.CalendarSyncEnabled)
	assert.False(t, cur.GoogleConnected())
}

func TestUpdatePublishesSnapshot(t *testing.T) {
	svc, _ := newService(t)
	off := false

	updated, err := svc.Update(context.Background(), settings.Patch{EmailNotificationsEnabled: &off})
	require.NoError(t, err)
	assert.False(t, updated.EmailNotificationsEnabled)
	assert.True(t, updated.CalendarSyncEnabled)
	assert.False(t, svc.Current().EmailNotificationsEnabled)
	assert.False(t, svc.Current().UpdatedAt.IsZero())
}

func TestGoogleTokenIsSealedAtRest(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	token := settings.GoogleToken{AccessToken: "access-123", RefreshToken: "refresh-456", Expiry: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	_, err := svc.SaveGoogleToken(ctx, token)
	require.NoError(t, err)
	require.True(t, svc.Current().GoogleConnected())
	assert.Equal(t, "refresh-456", svc.Current().GoogleToken.RefreshToken)

	rec, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(rec.GoogleToken), "refresh-456")

	_, err = svc.DisconnectGoogle(ctx)
	require.NoError(t, err)
	assert.False(t, svc.Current().GoogleConnected())
}

func TestSaveEmptyTokenRejected(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.SaveGoogleToken(context.Background(), settings.GoogleToken{})
	assert.Error(t, err)
}
