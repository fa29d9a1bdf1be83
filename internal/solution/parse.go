package solution

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/smartmath/internal/llm"
)

// ParseError reports a recognition payload that could not be turned into a
// Solution. Raw holds the text as received.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse solution: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse strips incidental code fences, validates the payload against Schema
// and decodes it. Any mismatch is an error; no partial Solution is returned.
func Parse(raw string) (*Solution, error) {
	body := json.RawMessage(llm.StripCodeFences(raw))
	if len(body) == 0 {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("empty response")}
	}
	if err := llm.Validate(Schema, body); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var s Solution
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if s.Steps == nil {
		s.Steps = []Step{}
	}
	return &s, nil
}
