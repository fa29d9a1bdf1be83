package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartmath/internal/profile"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenAppStorage(t *testing.T) {
	storage := openAppStorage(filepath.Join(t.TempDir(), "smartmath.db"), discardLogger())
	defer storage.close()

	assert.NotNil(t, storage.events)
	require.NoError(t, storage.prefs.Set(context.Background(), "theme", "dark"))
}

func TestOpenAppStorageCorruptDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smartmath.db")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("garbage!"), 1024), 0o644))

	storage := openAppStorage(path, discardLogger())
	require.NoError(t, storage.close())
	assert.Nil(t, storage.events)

	// No stored profile, so the TUI starts on onboarding; the name still
	// sticks for the rest of the session.
	profiles := profile.NewStore(storage.prefs, discardLogger())
	ctx := context.Background()
	_, ok := profiles.Load(ctx)
	assert.False(t, ok)

	require.NoError(t, profiles.Save(ctx, profile.Profile{DisplayName: "Ани"}))
	p, ok := profiles.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, "Ани", p.DisplayName)
}
