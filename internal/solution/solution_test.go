package solution

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartmath/internal/llm"
	"github.com/abhisek/smartmath/internal/notation"
)

const algebraJSON = `{
	"latex_expression": "2x+3=7",
	"final_answer": "x=2",
	"difficulty": "Easy",
	"topic": "Algebra",
	"steps": [
		{"title": "Isolate term", "explanation": "Subtract 3 from both sides.", "latex_result": "2x=4"},
		{"title": "Divide", "explanation": "Divide both sides by 2.", "latex_result": "x=2"}
	]
}`

func TestParse(t *testing.T) {
	s, err := Parse(algebraJSON)
	require.NoError(t, err)

	assert.Equal(t, "2x+3=7", s.Expression)
	assert.Equal(t, "x=2", s.FinalAnswer)
	assert.Equal(t, Easy, s.Difficulty)
	assert.Equal(t, "Algebra", s.Topic)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "Isolate term", s.Steps[0].Title)
	assert.Equal(t, "x=2", s.Steps[1].Result)
	assert.False(t, s.IsSentinel())
}

func TestParse_StripsFences(t *testing.T) {
	for _, wrapped := range []string{
		"```json\n" + algebraJSON + "\n```",
		"```\n" + algebraJSON + "\n```",
		"  " + algebraJSON + "\n",
	} {
		s, err := Parse(wrapped)
		require.NoError(t, err)
		assert.Equal(t, "Algebra", s.Topic)
	}
}

func TestParse_RejectsNonConforming(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "Sorry, I can't read that."},
		{"truncated", `{"latex_expression": "1+1"`},
		{"missing steps", `{"latex_expression":"1+1","final_answer":"2","difficulty":"Easy","topic":"Аритметика"}`},
		{"bad difficulty", `{"latex_expression":"1+1","final_answer":"2","difficulty":"Trivial","topic":"Аритметика","steps":[]}`},
		{"step missing result", `{"latex_expression":"1+1","final_answer":"2","difficulty":"Easy","topic":"Аритметика","steps":[{"title":"a","explanation":"b"}]}`},
		{"wrong type", `{"latex_expression":"1+1","final_answer":2,"difficulty":"Easy","topic":"Аритметика","steps":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(tt.raw)
			assert.Nil(t, s)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected *ParseError, got %v", err)
			assert.Equal(t, tt.raw, pe.Raw)
		})
	}
}

func TestParse_InvalidResponseUnwraps(t *testing.T) {
	_, err := Parse(`{"topic":"x"}`)
	var inv *llm.ErrInvalidResponse
	assert.True(t, errors.As(err, &inv))
}

func TestIsSentinel(t *testing.T) {
	raw := `{"latex_expression":"\\text{Не открих задача}","final_answer":"-","difficulty":"Easy","topic":"Error","steps":[]}`
	s, err := Parse(raw)
	require.NoError(t, err)
	assert.True(t, s.IsSentinel())

	bg := *s
	bg.Topic = "Грешка"
	assert.True(t, bg.IsSentinel())

	withSteps := *s
	withSteps.Steps = []Step{{Title: "a", Explanation: "b", Result: "c"}}
	assert.False(t, withSteps.IsSentinel())

	var nilSol *Solution
	assert.False(t, nilSol.IsSentinel())
}

func TestDifficultyLabel(t *testing.T) {
	assert.Equal(t, "Лесно", Easy.Label())
	assert.Equal(t, "Средно", Medium.Label())
	assert.Equal(t, "Трудно", Hard.Label())
	assert.Equal(t, "Extreme", Difficulty("Extreme").Label())
}

func TestPlainText(t *testing.T) {
	s, err := Parse(algebraJSON)
	require.NoError(t, err)

	want := "--- SmartMath AI Решение ---\n\n" +
		"Тема: Algebra\n" +
		"Трудност: Лесно\n\n" +
		"Задача:\n2x+3=7\n\n" +
		"--- Стъпки ---\n" +
		"1. Isolate term\nSubtract 3 from both sides.\n=> 2x=4\n\n" +
		"2. Divide\nDivide both sides by 2.\n=> x=2\n\n" +
		"--- Краен Отговор ---\nx=2\n"
	assert.Equal(t, want, s.PlainText())
	assert.Equal(t, s.PlainText(), s.PlainText(), "export must be deterministic")
}

func TestPlainText_StripsDelimiters(t *testing.T) {
	s := &Solution{
		Expression:  "$x^2 = 9$",
		FinalAnswer: `\(x = \pm 3\)`,
		Difficulty:  Medium,
		Topic:       "Квадратни уравнения",
		Steps: []Step{
			{Title: "Коренуване", Explanation: "Вадим корен от $9$.", Result: `\[x = \pm\sqrt{9}\]`},
		},
	}
	text := s.PlainText()
	for _, d := range []string{"$", `\(`, `\)`, `\[`, `\]`} {
		assert.NotContains(t, text, d)
	}
	assert.Contains(t, text, `x = \pm\sqrt{9}`)
}

// Every step's fields appear exactly once, in order, before the final answer.
func TestPlainText_PreservesStepOrder(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7} {
		s := &Solution{Expression: "$e$", FinalAnswer: "$ANSWER$", Difficulty: Hard, Topic: "T"}
		for i := 0; i < n; i++ {
			s.Steps = append(s.Steps, Step{
				Title:       fmt.Sprintf("title-%d", i),
				Explanation: fmt.Sprintf("explanation-%d", i),
				Result:      fmt.Sprintf("$result-%d$", i),
			})
		}

		text := notation.Strip(s.PlainText())
		pos := 0
		for _, st := range s.Steps {
			for _, field := range []string{st.Title, st.Explanation, notation.Strip(st.Result)} {
				require.Equal(t, 1, strings.Count(text, field), "field %q", field)
				idx := strings.Index(text, field)
				require.Greater(t, idx, pos-1, "field %q out of order", field)
				pos = idx
			}
		}
		assert.Greater(t, strings.Index(text, "ANSWER"), pos)
	}
}

func TestExpansionToggle(t *testing.T) {
	var e Expansion
	assert.False(t, e.IsExpanded(0))

	e.Toggle(1)
	assert.True(t, e.IsExpanded(1))
	assert.False(t, e.IsExpanded(0))

	e.Toggle(1)
	assert.False(t, e.IsExpanded(1))
	assert.Equal(t, 0, e.Len())

	for _, i := range []int{0, 2, 4} {
		e.Toggle(i)
	}
	before := e.Len()
	e.Toggle(2)
	e.Toggle(2)
	assert.Equal(t, before, e.Len())
	assert.True(t, e.IsExpanded(2))
}
