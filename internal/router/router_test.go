package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/smartmath/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "first" {
		t.Errorf("expected active 'first', got %q", r.Active().Title())
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after pop at bottom, got %d", r.Depth())
	}
}

func TestReplace(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Replace(s2)

	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after replace, got %d", r.Depth())
	}
	if r.Active().Title() != "second" {
		t.Errorf("expected active 'second', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on replaced screen")
	}
}

func TestReplacePreservesStackDepth(t *testing.T) {
	s1 := &stubScreen{title: "first"}
	r := New(s1)

	s2 := &stubScreen{title: "second"}
	r.Push(s2)

	s3 := &stubScreen{title: "third"}
	r.Replace(s3)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "third" {
		t.Errorf("expected active 'third', got %q", r.Active().Title())
	}
}

type disposableScreen struct {
	stubScreen
	closed int
}

func (s *disposableScreen) Close() { s.closed++ }

func TestPopDisposesScreen(t *testing.T) {
	r := New(&stubScreen{title: "first"})
	top := &disposableScreen{stubScreen: stubScreen{title: "camera"}}
	r.Push(top)

	r.Pop()
	if top.closed != 1 {
		t.Errorf("expected Close once on pop, got %d", top.closed)
	}
}

func TestReplaceDisposesOldScreen(t *testing.T) {
	old := &disposableScreen{stubScreen: stubScreen{title: "camera"}}
	r := New(old)

	r.Replace(&stubScreen{title: "solution"})
	if old.closed != 1 {
		t.Errorf("expected Close once on replace, got %d", old.closed)
	}
}

func TestCloseAllDisposesEveryScreen(t *testing.T) {
	a := &disposableScreen{stubScreen: stubScreen{title: "a"}}
	b := &disposableScreen{stubScreen: stubScreen{title: "b"}}
	r := New(a)
	r.Push(b)

	r.CloseAll()
	if a.closed != 1 || b.closed != 1 {
		t.Errorf("expected both closed once, got a=%d b=%d", a.closed, b.closed)
	}
	if r.Depth() != 2 {
		t.Errorf("CloseAll must not shrink the stack, depth %d", r.Depth())
	}
}

func TestReset(t *testing.T) {
	a := &disposableScreen{stubScreen: stubScreen{title: "a"}}
	r := New(a)
	r.Push(&stubScreen{title: "b"})

	fresh := &stubScreen{title: "fresh"}
	r.Reset(fresh)
	if r.Depth() != 1 || r.Active().Title() != "fresh" || !fresh.initRan {
		t.Errorf("unexpected state after reset: depth=%d active=%q", r.Depth(), r.Active().Title())
	}
	if a.closed != 1 {
		t.Error("expected old screens disposed on reset")
	}
}

type countingScreen struct {
	stubScreen
	seen int
}

func (s *countingScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen++
	return s, nil
}

func TestUpdateReachesOnlyActiveScreen(t *testing.T) {
	a := &countingScreen{stubScreen: stubScreen{title: "a"}}
	b := &countingScreen{stubScreen: stubScreen{title: "b"}}
	r := New(a)
	r.Push(b)

	r.Update(struct{}{})
	if a.seen != 0 || b.seen != 1 {
		t.Errorf("Update must only reach the active screen, got a=%d b=%d", a.seen, b.seen)
	}
}
