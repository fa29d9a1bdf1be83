package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoContent is wrapped in ErrInvalidResponse when the model answered
// without any text. A free-form tutor reply treats it as an empty answer.
var ErrNoContent = errors.New("no text content")

// ErrRateLimit means the provider answered 429. Requests are never retried
// automatically; the user retries from the capture screen.
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the reply cannot be used: it carried no text, or
// a structured payload did not match the requested schema. Content holds
// whatever the model sent.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers transport failures and 5xx answers.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the reply stopped at MaxTokens. Long
// step-by-step solutions are the usual cause; the partial text is kept.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("LLM response truncated at max tokens (%d bytes received)", len(e.Content))
}
