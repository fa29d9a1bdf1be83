package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/profile"
	"github.com/abhisek/smartmath/internal/router"
	"github.com/abhisek/smartmath/internal/screen"
	"github.com/abhisek/smartmath/internal/screens/camera"
	"github.com/abhisek/smartmath/internal/screens/chat"
	"github.com/abhisek/smartmath/internal/screens/onboarding"
	"github.com/abhisek/smartmath/internal/screens/result"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/solver"
	"github.com/abhisek/smartmath/internal/tutor"
	"github.com/abhisek/smartmath/internal/ui/layout"
	"github.com/abhisek/smartmath/internal/ui/theme"
)

// Recognizer turns a photo into a solution.
type Recognizer interface {
	RecognizeAndSolve(ctx context.Context, img capture.Image) (*solution.Solution, error)
}

// Options holds the dependencies for the TUI.
type Options struct {
	Profiles     *profile.Store
	Recognizer   Recognizer       // nil when no LLM provider is configured
	Chatter      chat.Chatter     // nil when no LLM provider is configured
	CameraOpener capture.OpenFunc // nil disables the live camera
	InboxDir     string
	Logger       *slog.Logger
	Now          func() time.Time
}

var errNoProvider = errors.New("no LLM provider configured")

// recognizedMsg carries the outcome of the call it was started for.
type recognizedMsg struct {
	call *solver.Call
	sol  *solution.Solution
	err  error
}

// AppModel is the root Bubble Tea model. It owns the view-flow machine and
// is the only place screens are mounted or dismissed.
type AppModel struct {
	opts    Options
	router  *router.Router
	machine *flow.Machine

	// call is the latest recognition request and photo the image it was
	// started for. Only that call's result is accepted, and only a failed
	// call can be retried.
	call  *solver.Call
	photo flow.ImageReadyMsg

	name        string
	themeStored bool

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// New builds the model, restoring the saved profile and theme.
func New(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Chatter == nil {
		opts.Chatter = unavailableChatter{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := AppModel{opts: opts, ctx: ctx, cancel: cancel}

	dark := true
	if t, ok := opts.Profiles.Theme(ctx); ok {
		dark = t == profile.ThemeDark
		m.themeStored = true
	}
	theme.SetDark(dark)

	p, hasProfile := opts.Profiles.Load(ctx)
	if hasProfile {
		m.name = p.DisplayName
	}
	m.machine = flow.NewMachine(flow.Initial(hasProfile, dark))

	var first screen.Screen
	if hasProfile {
		first = m.newCapture()
	} else {
		first = onboarding.New("")
	}
	m.router = router.New(first)
	return m
}

func (m AppModel) newCapture() screen.Screen {
	var cam *capture.Camera
	if m.opts.CameraOpener != nil {
		cam = capture.NewCamera(m.opts.CameraOpener)
	}
	return camera.New(camera.Options{
		Name:     m.name,
		Camera:   cam,
		InboxDir: m.opts.InboxDir,
		Now:      m.opts.Now,
		Logger:   m.opts.Logger,
	})
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if !m.themeStored {
		cmds = append(cmds, tea.RequestBackgroundColor)
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.BackgroundColorMsg:
		if !m.themeStored && msg.IsDark() != m.machine.State().Dark {
			m.toggleTheme(false)
		}
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}

	case flow.NameSubmittedMsg:
		return m.handleName(msg.Name)

	case flow.ChangeNameMsg:
		if err := m.machine.Fire(flow.ChangeName{}); err != nil {
			m.opts.Logger.Debug("change name ignored", "error", err)
			return m, nil
		}
		return m, m.router.Reset(onboarding.New(m.name))

	case flow.ImageReadyMsg:
		cmd := m.handleImage(msg)
		return m, cmd

	case recognizedMsg:
		cmd := m.handleRecognized(msg)
		return m, cmd

	case flow.RetryMsg:
		if m.call == nil || m.call.State() != solver.Failed {
			m.opts.Logger.Debug("nothing to retry")
			return m, nil
		}
		cmd := m.handleImage(m.photo)
		return m, cmd

	case flow.BackMsg:
		from := m.machine.State().View
		if err := m.machine.Fire(flow.Back{}); err != nil {
			m.opts.Logger.Debug("back ignored", "view", from.String(), "error", err)
			return m, nil
		}
		if from == flow.Tutor {
			return m, m.router.Pop()
		}
		return m, m.router.Reset(m.newCapture())

	case flow.OpenTutorMsg:
		if err := m.machine.Fire(flow.OpenTutor{}); err != nil {
			m.opts.Logger.Debug("tutor unavailable", "error", err)
			return m, nil
		}
		return m, m.router.Push(chat.New(m.machine.State().Solution, m.opts.Chatter))

	case flow.ToggleThemeMsg:
		m.toggleTheme(true)
		return m, nil
	}

	return m, m.router.Update(msg)
}

func (m *AppModel) handleName(name string) (tea.Model, tea.Cmd) {
	if err := m.opts.Profiles.Save(m.ctx, profile.Profile{DisplayName: name}); err != nil {
		// The session continues with the in-memory name.
		m.opts.Logger.Warn("save profile", "error", err)
	}
	m.name = name
	if err := m.machine.Fire(flow.OnboardingDone{}); err != nil {
		m.opts.Logger.Debug("name submitted outside onboarding", "error", err)
		return *m, nil
	}
	m.opts.Logger.Info("profile saved")
	return *m, m.router.Reset(m.newCapture())
}

func (m *AppModel) handleImage(img flow.ImageReadyMsg) tea.Cmd {
	if err := m.machine.BeginRecognition(); err != nil {
		m.opts.Logger.Debug("image dropped", "source", img.Source, "error", err)
		return m.router.Update(flow.RecognitionRejectedMsg{})
	}
	call := solver.NewCall()
	call.Begin()
	m.call, m.photo = call, img
	m.opts.Logger.Info("recognition started", "source", img.Source, "bytes", len(img.Image.Data))

	rec, ctx := m.opts.Recognizer, m.ctx
	recognize := func() tea.Msg {
		if rec == nil {
			return recognizedMsg{call: call, err: errNoProvider}
		}
		sol, err := rec.RecognizeAndSolve(ctx, img.Image)
		return recognizedMsg{call: call, sol: sol, err: err}
	}
	return tea.Batch(m.router.Update(flow.RecognitionStartedMsg{}), recognize)
}

func (m *AppModel) handleRecognized(msg recognizedMsg) tea.Cmd {
	if msg.call == nil || msg.call != m.call {
		m.opts.Logger.Debug("stale recognition result dropped")
		return nil
	}

	if msg.err != nil {
		if !m.call.Fail(msg.err) {
			m.opts.Logger.Debug("duplicate recognition result dropped", "state", m.call.State().String())
			return nil
		}
		if err := m.machine.Fire(flow.RecognitionFailed{}); err != nil {
			return nil
		}
		m.opts.Logger.Warn("recognition failed", "error", msg.err)
		return m.router.Update(flow.RecognitionFailedMsg{Err: msg.err})
	}

	if !m.call.Succeed() {
		m.opts.Logger.Debug("duplicate recognition result dropped", "state", m.call.State().String())
		return nil
	}
	if err := m.machine.Fire(flow.RecognitionSucceeded{Solution: msg.sol}); err != nil {
		m.opts.Logger.Warn("unexpected recognition result", "error", err)
		return nil
	}
	if msg.sol.IsSentinel() {
		m.opts.Logger.Info("no problem found in photo")
		return m.router.Update(flow.NothingFoundMsg{})
	}
	m.opts.Logger.Info("problem solved", "topic", msg.sol.Topic, "steps", len(msg.sol.Steps))
	return m.router.Replace(result.New(msg.sol))
}

// toggleTheme flips the palette. User-initiated toggles are persisted and
// stop the terminal background from overriding the choice.
func (m *AppModel) toggleTheme(persist bool) {
	if err := m.machine.Fire(flow.ToggleTheme{}); err != nil {
		return
	}
	dark := m.machine.State().Dark
	theme.SetDark(dark)
	if !persist {
		return
	}
	m.themeStored = true
	t := profile.ThemeLight
	if dark {
		t = profile.ThemeDark
	}
	if err := m.opts.Profiles.SetTheme(m.ctx, t); err != nil {
		m.opts.Logger.Warn("save theme", "error", err)
	}
}

// shutdown releases every mounted screen's resources and abandons any
// request still in flight.
func (m *AppModel) shutdown() {
	m.router.CloseAll()
	m.cancel()
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render composes header, active screen and footer for the current size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.name, m.width)

	footerHints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Изход"}}
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	}
	footer := layout.RenderFooter(footerHints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// unavailableChatter answers every question with the tutor's error text.
type unavailableChatter struct{}

func (unavailableChatter) ContinueChat(context.Context, []tutor.Message, string, *solution.Solution) string {
	return solver.FallbackError
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m)
	_, err := p.Run()
	// The program may exit without ctrl+c; release the camera regardless.
	m.shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
