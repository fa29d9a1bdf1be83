// Package flow is the view-state machine that decides which screen is
// mounted. Transitions are pure; Machine holds the current snapshot.
package flow

import (
	"errors"
	"fmt"

	"github.com/abhisek/smartmath/internal/solution"
)

// View is one of the four top-level screens.
type View int

const (
	Onboarding View = iota
	Capture
	Solution
	Tutor
)

func (v View) String() string {
	switch v {
	case Onboarding:
		return "onboarding"
	case Capture:
		return "capture"
	case Solution:
		return "solution"
	case Tutor:
		return "tutor"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrBusy              = errors.New("a recognition request is already in flight")
	ErrNoSolution        = errors.New("no current solution")
)

// State is everything the controller owns. Solution is set only in the
// Solution and Tutor views.
type State struct {
	View     View
	Solution *solution.Solution
	InFlight bool
	Dark     bool
}

// Event drives a transition.
type Event interface {
	eventName() string
}

type (
	// OnboardingDone is sent after a valid name was saved.
	OnboardingDone struct{}
	// ChangeName re-enters onboarding from capture.
	ChangeName struct{}
	// RecognitionStarted claims the single in-flight slot.
	RecognitionStarted struct{}
	// RecognitionSucceeded carries the parsed result. A sentinel result
	// keeps the user on the capture view.
	RecognitionSucceeded struct{ Solution *solution.Solution }
	// RecognitionFailed releases the slot after a hard error.
	RecognitionFailed struct{}
	// Back follows the back-edge of the current view.
	Back struct{}
	// OpenTutor enters the tutor for the current solution.
	OpenTutor struct{}
	// ToggleTheme flips light/dark in any view.
	ToggleTheme struct{}
)

func (OnboardingDone) eventName() string       { return "onboarding-done" }
func (ChangeName) eventName() string           { return "change-name" }
func (RecognitionStarted) eventName() string   { return "recognition-started" }
func (RecognitionSucceeded) eventName() string { return "recognition-succeeded" }
func (RecognitionFailed) eventName() string    { return "recognition-failed" }
func (Back) eventName() string                 { return "back" }
func (OpenTutor) eventName() string            { return "open-tutor" }
func (ToggleTheme) eventName() string          { return "toggle-theme" }

func invalid(s State, e Event) error {
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, e.eventName(), s.View)
}

// Transition returns the state after e. On error s is returned unchanged.
func Transition(s State, e Event) (State, error) {
	next := s
	switch e := e.(type) {
	case OnboardingDone:
		if s.View != Onboarding {
			return s, invalid(s, e)
		}
		next.View = Capture

	case ChangeName:
		if s.View != Capture {
			return s, invalid(s, e)
		}
		if s.InFlight {
			return s, ErrBusy
		}
		next.View = Onboarding

	case RecognitionStarted:
		if s.View != Capture {
			return s, invalid(s, e)
		}
		if s.InFlight {
			return s, ErrBusy
		}
		next.InFlight = true

	case RecognitionSucceeded:
		if s.View != Capture || !s.InFlight {
			return s, invalid(s, e)
		}
		if e.Solution == nil {
			return s, ErrNoSolution
		}
		next.InFlight = false
		if !e.Solution.IsSentinel() {
			next.View = Solution
			next.Solution = e.Solution
		}

	case RecognitionFailed:
		if s.View != Capture || !s.InFlight {
			return s, invalid(s, e)
		}
		next.InFlight = false

	case Back:
		switch s.View {
		case Solution:
			next.View = Capture
			next.Solution = nil
		case Tutor:
			next.View = Solution
		default:
			return s, invalid(s, e)
		}

	case OpenTutor:
		if s.View != Solution {
			return s, invalid(s, e)
		}
		if s.Solution == nil {
			return s, ErrNoSolution
		}
		next.View = Tutor

	case ToggleTheme:
		next.Dark = !s.Dark

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, e)
	}
	return next, nil
}

// Initial returns the startup state: capture when a profile exists,
// onboarding otherwise.
func Initial(hasProfile, dark bool) State {
	v := Onboarding
	if hasProfile {
		v = Capture
	}
	return State{View: v, Dark: dark}
}

// Machine owns the current State. It is used from the UI loop only.
type Machine struct {
	state State
}

// NewMachine starts a machine at s.
func NewMachine(s State) *Machine {
	return &Machine{state: s}
}

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state }

// Fire applies e. On error the state is unchanged.
func (m *Machine) Fire(e Event) error {
	next, err := Transition(m.state, e)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

// BeginRecognition claims the in-flight slot or returns ErrBusy.
func (m *Machine) BeginRecognition() error {
	return m.Fire(RecognitionStarted{})
}
