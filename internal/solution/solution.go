// Package solution defines the structured result of recognizing and solving
// one math problem, its response schema, and its plain-text export.
package solution

import (
	"fmt"
	"strings"

	"github.com/abhisek/smartmath/internal/notation"
)

// Difficulty is the model's estimate of how hard the problem is.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Label returns the Bulgarian badge text. Unknown values are returned as is.
func (d Difficulty) Label() string {
	switch d {
	case Easy:
		return "Лесно"
	case Medium:
		return "Средно"
	case Hard:
		return "Трудно"
	}
	return string(d)
}

// Step is one stage of the derivation. Result holds the expression after
// the step, in LaTeX.
type Step struct {
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Result      string `json:"latex_result"`
}

// Solution is immutable once parsed. Step order is the derivation order.
type Solution struct {
	Expression  string     `json:"latex_expression"`
	FinalAnswer string     `json:"final_answer"`
	Difficulty  Difficulty `json:"difficulty"`
	Topic       string     `json:"topic"`
	Steps       []Step     `json:"steps"`
}

// Sentinel marker values returned when the photo holds no problem.
const (
	SentinelTopic   = "Error"
	SentinelTopicBG = "Грешка"
	SentinelAnswer  = "-"
)

// IsSentinel reports whether the model said no problem was recognized.
// Such a solution is routed as a soft notice and never rendered.
func (s *Solution) IsSentinel() bool {
	if s == nil {
		return false
	}
	topic := strings.TrimSpace(s.Topic)
	return (topic == SentinelTopic || topic == SentinelTopicBG) &&
		strings.TrimSpace(s.FinalAnswer) == SentinelAnswer &&
		len(s.Steps) == 0
}

// ShareHeader opens every plain-text export.
const ShareHeader = "--- SmartMath AI Решение ---"

// PlainText renders the deterministic share export. Notation delimiters are
// stripped; the LaTeX body is kept so it can be pasted elsewhere.
func (s *Solution) PlainText() string {
	var b strings.Builder
	b.WriteString(ShareHeader + "\n\n")
	fmt.Fprintf(&b, "Тема: %s\n", s.Topic)
	fmt.Fprintf(&b, "Трудност: %s\n\n", s.Difficulty.Label())
	fmt.Fprintf(&b, "Задача:\n%s\n\n", notation.Strip(s.Expression))
	b.WriteString("--- Стъпки ---\n")
	for i, st := range s.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, notation.Strip(st.Title))
		fmt.Fprintf(&b, "%s\n", notation.Strip(st.Explanation))
		fmt.Fprintf(&b, "=> %s\n\n", notation.Strip(st.Result))
	}
	b.WriteString("--- Краен Отговор ---\n")
	fmt.Fprintf(&b, "%s\n", notation.Strip(s.FinalAnswer))
	return b.String()
}
