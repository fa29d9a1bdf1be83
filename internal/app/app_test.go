package app

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/profile"
	"github.com/abhisek/smartmath/internal/screens/camera"
	"github.com/abhisek/smartmath/internal/screens/chat"
	"github.com/abhisek/smartmath/internal/screens/onboarding"
	"github.com/abhisek/smartmath/internal/screens/result"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/solver"
	"github.com/abhisek/smartmath/internal/store"
	"github.com/abhisek/smartmath/internal/ui/theme"
)

type stubRecognizer struct {
	sol   *solution.Solution
	err   error
	calls int
}

func (s *stubRecognizer) RecognizeAndSolve(context.Context, capture.Image) (*solution.Solution, error) {
	s.calls++
	return s.sol, s.err
}

func newProfiles(t *testing.T) *profile.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return profile.NewStore(st.PreferenceRepo(), nil)
}

func newApp(t *testing.T, profiles *profile.Store, rec Recognizer) AppModel {
	t.Helper()
	t.Cleanup(func() { theme.SetDark(true) })
	m := New(Options{Profiles: profiles, Recognizer: rec})
	t.Cleanup(m.shutdown)
	return m
}

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func algebra() *solution.Solution {
	return &solution.Solution{
		Expression:  "2x+3=7",
		FinalAnswer: "x=2",
		Difficulty:  solution.Easy,
		Topic:       "Algebra",
		Steps:       []solution.Step{{Title: "Извади 3", Explanation: "…", Result: "2x=4"}},
	}
}

var photo = flow.ImageReadyMsg{Image: capture.Image{Data: []byte{1}, MIMEType: "image/jpeg"}, Source: "file"}

// finish delivers the result of the recognition currently in flight.
func finish(m AppModel, sol *solution.Solution, err error) AppModel {
	m, _ = update(m, recognizedMsg{call: m.call, sol: sol, err: err})
	return m
}

// solved drives a fresh app with a saved profile to the solution view.
func solved(t *testing.T) AppModel {
	t.Helper()
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{sol: algebra()})
	m, _ = update(m, photo)
	m = finish(m, algebra(), nil)
	require.IsType(t, &result.ResultScreen{}, m.router.Active())
	return m
}

func TestStartsWithOnboardingWithoutProfile(t *testing.T) {
	m := newApp(t, newProfiles(t), nil)
	assert.IsType(t, &onboarding.OnboardingScreen{}, m.router.Active())
	assert.Equal(t, flow.Onboarding, m.machine.State().View)
}

func TestOnboardingSavesNameAndOpensCapture(t *testing.T) {
	profiles := newProfiles(t)
	m := newApp(t, profiles, nil)

	m, _ = update(m, flow.NameSubmittedMsg{Name: "Ани"})

	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
	assert.Equal(t, 1, m.router.Depth())
	assert.Equal(t, "Ани", m.name)

	p, ok := profiles.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Ани", p.DisplayName)
}

func TestStartsWithCaptureWhenProfileExists(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))

	m := newApp(t, profiles, nil)
	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
	assert.Equal(t, "Ани", m.name)
}

func TestChangeNameReturnsToOnboarding(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, nil)

	m, _ = update(m, flow.ChangeNameMsg{})
	assert.IsType(t, &onboarding.OnboardingScreen{}, m.router.Active())
	assert.Equal(t, 1, m.router.Depth())
}

func TestRecognitionSuccessShowsSolution(t *testing.T) {
	m := solved(t)
	st := m.machine.State()
	assert.Equal(t, flow.Solution, st.View)
	assert.False(t, st.InFlight)
	assert.Equal(t, "Algebra", st.Solution.Topic)
}

func TestImageWhileInFlightIsDropped(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{sol: algebra()})

	m, _ = update(m, photo)
	require.True(t, m.machine.State().InFlight)

	m, _ = update(m, photo)
	assert.True(t, m.machine.State().InFlight)

	// Only the first image completes; the second was never started.
	m = finish(m, algebra(), nil)
	assert.Equal(t, flow.Solution, m.machine.State().View)
}

func TestChangeNameBlockedWhileInFlight(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{})

	m, _ = update(m, photo)
	m, _ = update(m, flow.ChangeNameMsg{})
	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
}

func TestSentinelStaysOnCapture(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{})

	sentinel := &solution.Solution{Expression: `\text{Не открих задача}`, FinalAnswer: "-", Topic: "Error", Steps: []solution.Step{}}
	m, _ = update(m, photo)
	m = finish(m, sentinel, nil)

	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
	assert.Equal(t, flow.Capture, m.machine.State().View)
	assert.False(t, m.machine.State().InFlight)
	assert.Nil(t, m.machine.State().Solution)
}

func TestRecognitionFailureStaysOnCapture(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{})

	m, _ = update(m, photo)
	m = finish(m, nil, errors.New("boom"))

	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
	assert.False(t, m.machine.State().InFlight)
	assert.Equal(t, solver.Failed, m.call.State())
}

func TestResultForOtherCallIsDropped(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{})

	m, _ = update(m, photo)
	stale := solver.NewCall()
	stale.Begin()

	m, cmd := update(m, recognizedMsg{call: stale, sol: algebra()})
	assert.Nil(t, cmd)
	assert.True(t, m.machine.State().InFlight)
	assert.Equal(t, solver.Sending, m.call.State())

	m, _ = update(m, recognizedMsg{sol: algebra()})
	assert.True(t, m.machine.State().InFlight, "a result without a call is never accepted")
}

func TestDuplicateResultIsDropped(t *testing.T) {
	m := solved(t)
	first := m.router.Active()

	m, cmd := update(m, recognizedMsg{call: m.call, err: errors.New("late")})
	assert.Nil(t, cmd)
	assert.Same(t, first, m.router.Active())
	assert.Equal(t, solver.Succeeded, m.call.State())
	assert.Equal(t, flow.Solution, m.machine.State().View)
}

func TestRetryResendsFailedPhoto(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{})

	m, _ = update(m, photo)
	failed := m.call
	m = finish(m, nil, errors.New("boom"))

	m, cmd := update(m, flow.RetryMsg{})
	require.NotNil(t, cmd)
	assert.True(t, m.machine.State().InFlight)
	assert.NotSame(t, failed, m.call, "a retry is a new call")
	assert.Equal(t, solver.Sending, m.call.State())
	assert.Equal(t, photo.Image.Data, m.photo.Image.Data)

	m = finish(m, algebra(), nil)
	assert.IsType(t, &result.ResultScreen{}, m.router.Active())
}

func TestRetryIgnoredUnlessLastCallFailed(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, &stubRecognizer{})

	m, cmd := update(m, flow.RetryMsg{})
	assert.Nil(t, cmd, "nothing has been sent yet")
	assert.False(t, m.machine.State().InFlight)

	sentinel := &solution.Solution{Expression: `\text{Не открих задача}`, FinalAnswer: "-", Topic: "Error", Steps: []solution.Step{}}
	m, _ = update(m, photo)
	m = finish(m, sentinel, nil)

	m, cmd = update(m, flow.RetryMsg{})
	assert.Nil(t, cmd, "a completed call is not retried")
	assert.False(t, m.machine.State().InFlight)
}

type brokenPrefs struct{}

func (brokenPrefs) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("file is not a database")
}
func (brokenPrefs) Set(context.Context, string, string) error { return errors.New("file is not a database") }
func (brokenPrefs) Delete(context.Context, string) error      { return errors.New("file is not a database") }

func TestStorageFailureStartsOnboarding(t *testing.T) {
	m := newApp(t, profile.NewStore(brokenPrefs{}, nil), nil)
	assert.IsType(t, &onboarding.OnboardingScreen{}, m.router.Active())

	m, _ = update(m, flow.NameSubmittedMsg{Name: "Ани"})
	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
	assert.Equal(t, "Ани", m.name)
}

func TestMissingProviderFails(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.Save(context.Background(), profile.Profile{DisplayName: "Ани"}))
	m := newApp(t, profiles, nil)

	m, cmd := update(m, photo)
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)

	var got recognizedMsg
	for _, c := range batch {
		if c == nil {
			continue
		}
		if r, ok := c().(recognizedMsg); ok {
			got = r
		}
	}
	assert.ErrorIs(t, got.err, errNoProvider)
}

func TestTutorPushAndPop(t *testing.T) {
	m := solved(t)

	m, _ = update(m, flow.OpenTutorMsg{})
	assert.IsType(t, &chat.ChatScreen{}, m.router.Active())
	assert.Equal(t, 2, m.router.Depth())

	m, _ = update(m, flow.BackMsg{})
	assert.IsType(t, &result.ResultScreen{}, m.router.Active())
	assert.Equal(t, flow.Solution, m.machine.State().View)

	m, _ = update(m, flow.BackMsg{})
	assert.IsType(t, &camera.CaptureScreen{}, m.router.Active())
	assert.Equal(t, 1, m.router.Depth())
	assert.Nil(t, m.machine.State().Solution)
}

func TestToggleThemePersists(t *testing.T) {
	profiles := newProfiles(t)
	m := newApp(t, profiles, nil)
	require.True(t, theme.IsDark())

	m, _ = update(m, flow.ToggleThemeMsg{})
	assert.False(t, theme.IsDark())
	assert.False(t, m.machine.State().Dark)

	saved, ok := profiles.Theme(context.Background())
	require.True(t, ok)
	assert.Equal(t, profile.ThemeLight, saved)

	// A stored choice wins over the terminal background.
	m, _ = update(m, tea.BackgroundColorMsg{Color: color.Black})
	assert.False(t, theme.IsDark())
}

func TestStoredThemeRestored(t *testing.T) {
	profiles := newProfiles(t)
	require.NoError(t, profiles.SetTheme(context.Background(), profile.ThemeLight))

	m := newApp(t, profiles, nil)
	assert.False(t, theme.IsDark())
	assert.False(t, m.machine.State().Dark)
}

func TestCtrlCQuits(t *testing.T) {
	m := newApp(t, newProfiles(t), nil)
	_, cmd := update(m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ctx.Err(), "shutdown should cancel in-flight work")
}

func TestViewRendersHeaderAndHints(t *testing.T) {
	m := solved(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	content := m.render()
	assert.Contains(t, content, "SmartMath")
	assert.Contains(t, content, "Ани")
	assert.Contains(t, content, "AI Учител")
}
