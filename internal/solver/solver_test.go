package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/llm"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/tutor"
)

const algebraJSON = `{"latex_expression":"2x+3=7","final_answer":"x=2","difficulty":"Easy","topic":"Algebra","steps":[` +
	`{"title":"Isolate term","explanation":"Subtract 3.","latex_result":"2x=4"},` +
	`{"title":"Divide","explanation":"Divide by 2.","latex_result":"x=2"}]}`

var photo = capture.Image{Data: []byte("jpeg-bytes"), MIMEType: "image/jpeg"}

func TestRecognizeAndSolve(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(algebraJSON)})
	c := New(mock, DefaultConfig(), nil)

	sol, err := c.RecognizeAndSolve(context.Background(), photo)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", sol.Topic)
	assert.Len(t, sol.Steps, 2)
	assert.False(t, sol.IsSentinel())

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Same(t, solution.Schema, req.Schema)
	require.Len(t, req.Messages, 1)
	require.Len(t, req.Messages[0].Images, 1)
	assert.Equal(t, "image/jpeg", req.Messages[0].Images[0].MIMEType)
	assert.Equal(t, photo.Data, req.Messages[0].Images[0].Data)
	assert.Contains(t, req.Messages[0].Content, "LaTeX")
	assert.NotEmpty(t, req.System)
	assert.Equal(t, []string{llm.PurposeRecognize}, mock.Purposes)
}

func TestRecognizeAndSolve_FencedPayload(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("```json\n" + algebraJSON + "\n```")})
	sol, err := New(mock, DefaultConfig(), nil).RecognizeAndSolve(context.Background(), photo)
	require.NoError(t, err)
	assert.Equal(t, "x=2", sol.FinalAnswer)
}

func TestRecognizeAndSolve_Sentinel(t *testing.T) {
	raw := `{"latex_expression":"\\text{Не открих задача}","final_answer":"-","difficulty":"Easy","topic":"Error","steps":[]}`
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(raw)})

	sol, err := New(mock, DefaultConfig(), nil).RecognizeAndSolve(context.Background(), photo)
	require.NoError(t, err)
	assert.True(t, sol.IsSentinel())
}

func TestRecognizeAndSolve_HardErrors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("429")}})
		sol, err := New(mock, DefaultConfig(), nil).RecognizeAndSolve(context.Background(), photo)
		assert.Nil(t, sol)
		var rl *llm.ErrRateLimit
		assert.ErrorAs(t, err, &rl)
	})

	t.Run("malformed", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"topic":"Algebra"}`)})
		sol, err := New(mock, DefaultConfig(), nil).RecognizeAndSolve(context.Background(), photo)
		assert.Nil(t, sol)
		var pe *solution.ParseError
		assert.ErrorAs(t, err, &pe)
	})

	t.Run("no automatic retry", func(t *testing.T) {
		mock := llm.NewMockProvider(
			llm.MockResponse{Err: &llm.ErrProviderUnavailable{}},
			llm.MockResponse{Content: json.RawMessage(algebraJSON)},
		)
		_, err := New(mock, DefaultConfig(), nil).RecognizeAndSolve(context.Background(), photo)
		assert.Error(t, err)
		assert.Equal(t, 1, mock.CallCount())
	})
}

func testSolution() *solution.Solution {
	return &solution.Solution{Expression: "2x+3=7", FinalAnswer: "x=2", Topic: "Algebra", Difficulty: solution.Easy}
}

func TestBuildChatMessages(t *testing.T) {
	session := tutor.NewSession("Algebra")
	_, _, ok := session.Send("Защо 2x=4?")
	require.True(t, ok)
	session.Receive("Защото извадихме 3.")
	history := session.Messages()

	msgs := BuildChatMessages(history, "А после?", testSolution())

	require.Len(t, msgs, 5)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Expression: 2x+3=7")
	assert.Contains(t, msgs[0].Content, "Answer: x=2")
	assert.Contains(t, msgs[0].Content, "Topic: Algebra")

	// The ack and the welcome message are both model turns and get merged.
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.True(t, strings.HasPrefix(msgs[1].Content, TutorAck))
	assert.Contains(t, msgs[1].Content, history[0].Text)

	assert.Equal(t, llm.RoleUser, msgs[2].Role)
	assert.Equal(t, "Защо 2x=4?", msgs[2].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[3].Role)
	assert.Equal(t, llm.RoleUser, msgs[4].Role)
	assert.Equal(t, "А после?", msgs[4].Content)

	for i := 1; i < len(msgs); i++ {
		assert.NotEqual(t, msgs[i-1].Role, msgs[i].Role, "roles must alternate at %d", i)
	}
}

func TestContinueChat(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("Защото $2x = 4$.")})
	c := New(mock, DefaultConfig(), nil)

	reply := c.ContinueChat(context.Background(), nil, "Защо?", testSolution())
	assert.Equal(t, "Защото $2x = 4$.", reply)

	req := mock.Calls[0]
	assert.Nil(t, req.Schema)
	assert.Len(t, req.Messages, 3)
	assert.Equal(t, []string{llm.PurposeTutor}, mock.Purposes)
}

func TestContinueChat_RebuildsContextEachCall(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("one")},
		llm.MockResponse{Content: json.RawMessage("two")},
	)
	c := New(mock, DefaultConfig(), nil)
	session := tutor.NewSession("Algebra")

	_, prior, _ := session.Send("first")
	session.Receive(c.ContinueChat(context.Background(), prior, "first", testSolution()))
	_, prior, _ = session.Send("second")
	session.Receive(c.ContinueChat(context.Background(), prior, "second", testSolution()))

	second := mock.Calls[1]
	assert.Contains(t, second.Messages[0].Content, "Expression: 2x+3=7")
	var texts []string
	for _, m := range second.Messages {
		texts = append(texts, m.Content)
	}
	joined := strings.Join(texts, "|")
	assert.Contains(t, joined, "first")
	assert.Contains(t, joined, "one")
	assert.True(t, strings.HasSuffix(joined, "second"))
}

func TestContinueChat_Fallbacks(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: errors.New("network down")},
		llm.MockResponse{Content: json.RawMessage(`"   "`)},
		llm.MockResponse{Content: json.RawMessage(`"quoted reply"`)},
		llm.MockResponse{Err: &llm.ErrInvalidResponse{Err: fmt.Errorf("gemini: %w", llm.ErrNoContent)}},
	)
	c := New(mock, DefaultConfig(), nil)

	assert.Equal(t, FallbackError, c.ContinueChat(context.Background(), nil, "a", testSolution()))
	assert.Equal(t, FallbackEmpty, c.ContinueChat(context.Background(), nil, "b", testSolution()))
	assert.Equal(t, "quoted reply", c.ContinueChat(context.Background(), nil, "c", nil))
	assert.Equal(t, FallbackEmpty, c.ContinueChat(context.Background(), nil, "d", testSolution()),
		"a reply with no text is an empty answer, not an error")
}

func TestCallStates(t *testing.T) {
	c := NewCall()
	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Succeed(), "cannot succeed before sending")

	assert.True(t, c.Begin())
	assert.Equal(t, Sending, c.State())
	assert.False(t, c.Begin(), "cannot begin twice")

	boom := errors.New("boom")
	assert.True(t, c.Fail(boom))
	assert.Equal(t, Failed, c.State())
	assert.True(t, c.State().Terminal())
	assert.Same(t, boom, c.Err())

	assert.False(t, c.Succeed(), "failed is terminal")
	assert.False(t, c.Begin(), "no way back to idle")

	ok := NewCall()
	ok.Begin()
	assert.True(t, ok.Succeed())
	assert.True(t, ok.State().Terminal())
	assert.False(t, ok.Fail(boom))
}
