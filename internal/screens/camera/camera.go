// Package camera is the capture screen: it acquires a photo from the
// camera, a file path or a watched inbox and hands it to the controller.
package camera

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/flow"
	"github.com/abhisek/smartmath/internal/screen"
	"github.com/abhisek/smartmath/internal/ui/components"
	"github.com/abhisek/smartmath/internal/ui/layout"
	"github.com/abhisek/smartmath/internal/ui/theme"
)

const (
	alertRecognition = "Опа! Не можахме да разпознаем задачата. Моля, опитай отново."
	noticeNothing    = "Не открих задача на снимката. Опитай с по-ясна снимка или друг ъгъл."
	noticeBusy       = "Още работя по предишната снимка."
)

// Menu item indices.
const (
	itemShoot = iota
	itemUpload
	itemChangeName
)

type camState int

const (
	camStarting camState = iota
	camReady
	camFailed
)

type mode int

const (
	modeMenu mode = iota
	modeUpload
)

// Internal messages. Each carries the screen that issued it so results
// from a disposed screen are ignored.
type (
	cameraStartedMsg struct {
		owner *CaptureScreen
		err   error
	}
	captureFailedMsg struct {
		owner *CaptureScreen
		err   error
	}
	inboxFileMsg struct {
		owner *CaptureScreen
		path  string
	}
	imageLoadedMsg struct {
		owner *CaptureScreen
		img   flow.ImageReadyMsg
	}
	spinnerTickMsg struct{ owner *CaptureScreen }
)

// Options configures a capture screen.
type Options struct {
	Name     string
	Camera   *capture.Camera // nil disables the live camera
	InboxDir string          // empty disables the inbox
	Now      func() time.Time
	Logger   *slog.Logger
}

// CaptureScreen is mounted once per visit; Close releases the camera and
// stops the inbox watcher.
type CaptureScreen struct {
	opts  Options
	menu  components.Menu
	input components.TextInput
	mode  mode

	cam         camState
	camErr      *capture.DeviceError
	inbox       *capture.Inbox
	inboxStatus string

	busy   bool
	frame  int
	alert  string
	notice string

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

var (
	_ screen.Screen   = (*CaptureScreen)(nil)
	_ screen.Disposer = (*CaptureScreen)(nil)
)

// New creates the capture screen. The inbox watcher starts immediately;
// the camera is acquired in Init.
func New(opts Options) *CaptureScreen {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &CaptureScreen{
		opts:   opts,
		input:  components.NewTextInput("~/Снимки/задача.jpg", 0, 50),
		ctx:    ctx,
		cancel: cancel,
	}
	c.input.Blur()
	c.menu = components.NewMenu([]components.MenuItem{
		{Label: "Снимай задача", Action: c.shoot},
		{Label: "Качи снимка", Action: c.openUpload},
		{Label: "Смени името", Action: changeName},
	})

	if opts.Camera == nil {
		c.cam = camFailed
		c.camErr = &capture.DeviceError{Kind: capture.KindNoDevice, Err: errors.New("camera disabled")}
	}

	if opts.InboxDir != "" {
		in, err := capture.WatchInbox(opts.InboxDir)
		if err != nil {
			opts.Logger.Warn("inbox unavailable", "dir", opts.InboxDir, "error", err)
			c.inboxStatus = "Папката за снимки не е достъпна."
		} else {
			c.inbox = in
			c.inboxStatus = "Следя " + in.Dir() + " за нови снимки."
		}
	}
	c.refreshMenu()
	return c
}

func (c *CaptureScreen) Title() string {
	return "Снимай задача"
}

func (c *CaptureScreen) Init() tea.Cmd {
	var cmds []tea.Cmd
	if c.opts.Camera != nil {
		cmds = append(cmds, c.startCamera())
	}
	if c.inbox != nil {
		cmds = append(cmds, c.waitInbox())
	}
	return tea.Batch(cmds...)
}

func (c *CaptureScreen) startCamera() tea.Cmd {
	cam, ctx := c.opts.Camera, c.ctx
	return func() tea.Msg {
		return cameraStartedMsg{owner: c, err: cam.Start(ctx)}
	}
}

func (c *CaptureScreen) waitInbox() tea.Cmd {
	in, ctx := c.inbox, c.ctx
	return func() tea.Msg {
		p, err := in.Next(ctx)
		if err != nil {
			return nil
		}
		return inboxFileMsg{owner: c, path: p}
	}
}

// Close releases the camera and inbox. Safe to call more than once.
func (c *CaptureScreen) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	if c.opts.Camera != nil {
		if err := c.opts.Camera.Release(); err != nil {
			c.opts.Logger.Warn("release camera", "error", err)
		}
	}
	if c.inbox != nil {
		c.inbox.Close()
	}
}

func (c *CaptureScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case cameraStartedMsg:
		if msg.owner != c || c.closed {
			return c, nil
		}
		if msg.err != nil {
			c.cam = camFailed
			c.camErr = capture.AsDeviceError(msg.err)
			c.opts.Logger.Warn("camera unavailable", "kind", c.camErr.Kind.String(), "error", c.camErr)
		} else {
			c.cam = camReady
			c.camErr = nil
		}
		c.refreshMenu()
		return c, nil

	case captureFailedMsg:
		if msg.owner != c {
			return c, nil
		}
		c.busy = false
		var de *capture.DeviceError
		if errors.As(msg.err, &de) {
			c.cam = camFailed
			c.camErr = de
		} else {
			c.notice = msg.err.Error()
		}
		c.refreshMenu()
		return c, nil

	case inboxFileMsg:
		if msg.owner != c {
			return c, nil
		}
		next := c.waitInbox()
		if c.busy {
			c.notice = noticeBusy
			return c, next
		}
		return c, tea.Batch(c.load(msg.path, "inbox"), next)

	case imageLoadedMsg:
		if msg.owner != c {
			return c, nil
		}
		img := msg.img
		return c, func() tea.Msg { return img }

	case flow.RecognitionStartedMsg:
		c.busy = true
		c.alert, c.notice = "", ""
		c.refreshMenu()
		return c, c.tick()

	case flow.RecognitionFailedMsg:
		c.busy = false
		c.alert = alertRecognition
		c.refreshMenu()
		return c, nil

	case flow.NothingFoundMsg:
		c.busy = false
		c.notice = noticeNothing
		c.refreshMenu()
		return c, nil

	case flow.RecognitionRejectedMsg:
		c.notice = noticeBusy
		return c, nil

	case spinnerTickMsg:
		if msg.owner != c || !c.busy {
			return c, nil
		}
		c.frame++
		return c, c.tick()

	case tea.KeyPressMsg:
		return c.handleKey(msg)
	}

	if c.mode == modeUpload {
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return c, cmd
	}
	return c, nil
}

func (c *CaptureScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	// The hard-error alert blocks everything until dismissed.
	if c.alert != "" {
		switch msg.String() {
		case "r":
			c.alert = ""
			return c, c.retry()
		case "enter", "esc":
			c.alert = ""
		}
		return c, nil
	}

	if c.mode == modeUpload {
		switch msg.Code {
		case tea.KeyEscape:
			c.mode = modeMenu
			c.input.Blur()
			return c, nil
		case tea.KeyEnter:
			path := strings.TrimSpace(c.input.Value())
			if path == "" || c.busy {
				return c, nil
			}
			c.mode = modeMenu
			c.input.Blur()
			c.input.Reset()
			return c, c.load(path, "file")
		}
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return c, cmd
	}

	switch msg.String() {
	case "space", "p":
		return c, c.shoot()
	case "u":
		return c, c.openUpload()
	case "r":
		return c, c.retryCamera()
	}
	var cmd tea.Cmd
	c.menu, cmd = c.menu.Update(msg)
	return c, cmd
}

func (c *CaptureScreen) refreshMenu() {
	c.menu.SetDisabled(itemShoot, c.busy || c.cam != camReady)
	c.menu.SetDisabled(itemUpload, c.busy)
	c.menu.SetDisabled(itemChangeName, c.busy)
}

func (c *CaptureScreen) tick() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{owner: c}
	})
}

func (c *CaptureScreen) shoot() tea.Cmd {
	if c.busy || c.cam != camReady {
		return nil
	}
	cam, ctx := c.opts.Camera, c.ctx
	return func() tea.Msg {
		img, err := cam.Grab(ctx)
		if err != nil {
			return captureFailedMsg{owner: c, err: err}
		}
		return imageLoadedMsg{owner: c, img: flow.ImageReadyMsg{Image: img, Source: "camera"}}
	}
}

// retryCamera reacquires a device after a failure. Failures are never
// retried automatically.
func (c *CaptureScreen) retryCamera() tea.Cmd {
	if c.opts.Camera == nil || c.cam != camFailed {
		return nil
	}
	c.cam = camStarting
	c.camErr = nil
	return c.startCamera()
}

func (c *CaptureScreen) openUpload() tea.Cmd {
	if c.busy {
		return nil
	}
	c.mode = modeUpload
	c.notice = ""
	return c.input.Focus()
}

func (c *CaptureScreen) load(path, source string) tea.Cmd {
	return func() tea.Msg {
		img, err := capture.LoadFile(path)
		if err != nil {
			return captureFailedMsg{owner: c, err: loadError(err)}
		}
		return imageLoadedMsg{owner: c, img: flow.ImageReadyMsg{Image: img, Source: source}}
	}
}

// retry asks the controller to resend the photo that failed. The
// controller decides whether there is anything to resend.
func (c *CaptureScreen) retry() tea.Cmd {
	if c.busy {
		return nil
	}
	return func() tea.Msg { return flow.RetryMsg{} }
}

func changeName() tea.Cmd {
	return func() tea.Msg { return flow.ChangeNameMsg{} }
}

func loadError(err error) error {
	switch {
	case errors.Is(err, capture.ErrUnsupportedImage):
		return errors.New("Файлът не е снимка (JPG, PNG или GIF).")
	default:
		return errors.New("Не успях да отворя файла. Провери пътя и опитай пак.")
	}
}

func (c *CaptureScreen) View(width, height int) string {
	greeting := lipgloss.NewStyle().
		Foreground(theme.Text).
		Bold(true).
		Render(Greeting(c.opts.Name, c.opts.Now().Hour()))

	sections := []string{greeting, theme.Subtitle.Render("Снимай или качи математическа задача"), ""}

	switch {
	case c.busy:
		dots := strings.Repeat("●", c.frame%4) + strings.Repeat("○", 3-c.frame%4)
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("Анализиране... "+dots))
	case c.cam == camStarting:
		sections = append(sections, theme.Hint.Render("Включване на камерата..."))
	case c.cam == camFailed && c.camErr != nil:
		sections = append(sections,
			lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("Грешка с камерата"),
			theme.Hint.Render(c.camErr.UserMessage()))
		if c.opts.Camera != nil {
			sections = append(sections, theme.Hint.Render("Натисни r, за да опиташ камерата отново."))
		}
	case c.cam == camReady:
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Success).Render("● Камерата е готова"))
	}
	sections = append(sections, "")

	if c.mode == modeUpload {
		sections = append(sections,
			theme.Body.Render("Път до снимката:"),
			c.input.View(),
			theme.Hint.Render("Enter за качване, Esc за отказ"))
	} else {
		sections = append(sections, c.menu.View())
	}

	if c.inboxStatus != "" {
		sections = append(sections, theme.Hint.Render(c.inboxStatus))
	}
	if c.notice != "" {
		sections = append(sections, "", theme.Notice.Render(c.notice))
	}

	content := strings.Join(sections, "\n")
	if c.alert != "" {
		box := theme.Alert.Render(c.alert + "\n\n" + theme.Hint.Render("r: опитай отново   Enter: затвори"))
		content = box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (c *CaptureScreen) KeyHints() []layout.KeyHint {
	if c.alert != "" {
		return []layout.KeyHint{
			{Key: "r", Description: "Опитай отново"},
			{Key: "Enter", Description: "Затвори"},
		}
	}
	if c.mode == modeUpload {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Качи"},
			{Key: "Esc", Description: "Отказ"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Избор"},
		{Key: "Enter", Description: "Потвърди"},
		{Key: "Space", Description: "Снимай"},
		{Key: "u", Description: "Качи"},
	}
	if c.cam == camFailed && c.opts.Camera != nil {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Камерата отново"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Изход"})
}
