// Package profile holds the user's display name and theme preference.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/abhisek/smartmath/internal/store"
)

// MaxNameLength is the longest accepted display name, in characters.
const MaxNameLength = 20

// Preference keys.
const (
	keyDisplayName = "display_name"
	keyTheme       = "theme"
)

var (
	ErrEmptyName   = errors.New("display name is empty")
	ErrNameTooLong = errors.New("display name is too long")
)

// Profile is the locally stored user identity.
type Profile struct {
	DisplayName string
}

// Theme is a persisted light/dark choice.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// NormalizeName trims surrounding whitespace and checks the length limits.
// The returned name is exactly what gets persisted.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return "", ErrEmptyName
	case n > MaxNameLength:
		return "", ErrNameTooLong
	}
	return name, nil
}

// Store persists the profile in the preference table.
type Store struct {
	prefs  store.PreferenceRepo
	logger *slog.Logger
}

// NewStore wraps a preference repo. A nil logger uses slog.Default().
func NewStore(prefs store.PreferenceRepo, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{prefs: prefs, logger: logger}
}

// Load returns the stored profile. Read failures and invalid stored values
// are logged and reported as absent so startup falls back to onboarding.
func (s *Store) Load(ctx context.Context) (*Profile, bool) {
	v, ok, err := s.prefs.Get(ctx, keyDisplayName)
	if err != nil {
		s.logger.Warn("load profile", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	name, err := NormalizeName(v)
	if err != nil {
		s.logger.Warn("stored display name is invalid", "error", err)
		return nil, false
	}
	return &Profile{DisplayName: name}, true
}

// Save persists p. Callers validate the name with NormalizeName first.
func (s *Store) Save(ctx context.Context, p Profile) error {
	return s.prefs.Set(ctx, keyDisplayName, p.DisplayName)
}

// Clear removes the stored profile.
func (s *Store) Clear(ctx context.Context) error {
	return s.prefs.Delete(ctx, keyDisplayName)
}

// Theme returns the persisted theme choice, if any.
func (s *Store) Theme(ctx context.Context) (Theme, bool) {
	v, ok, err := s.prefs.Get(ctx, keyTheme)
	if err != nil {
		s.logger.Warn("load theme", "error", err)
		return "", false
	}
	switch Theme(v) {
	case ThemeLight, ThemeDark:
		return Theme(v), ok
	}
	return "", false
}

// SetTheme persists the theme choice.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	return s.prefs.Set(ctx, keyTheme, string(t))
}
