package solver

import "sync"

// CallState is the lifecycle of one outbound request.
type CallState int

const (
	Idle CallState = iota
	Sending
	Succeeded
	Failed
)

func (s CallState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s CallState) Terminal() bool {
	return s == Succeeded || s == Failed
}

// Call tracks Idle → Sending → Succeeded|Failed. Out-of-order transitions
// are ignored and reported as false. There is no way back to Idle; a retry
// is a new Call.
type Call struct {
	mu    sync.Mutex
	state CallState
	err   error
}

// NewCall returns an idle call.
func NewCall() *Call {
	return &Call{}
}

func (c *Call) move(from, to CallState, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != from {
		return false
	}
	c.state = to
	c.err = err
	return true
}

// Begin moves Idle → Sending.
func (c *Call) Begin() bool { return c.move(Idle, Sending, nil) }

// Succeed moves Sending → Succeeded.
func (c *Call) Succeed() bool { return c.move(Sending, Succeeded, nil) }

// Fail moves Sending → Failed and records err.
func (c *Call) Fail(err error) bool { return c.move(Sending, Failed, err) }

// State returns the current state.
func (c *Call) State() CallState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure recorded by Fail.
func (c *Call) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
