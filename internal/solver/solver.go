// Package solver is the single egress point to the generative AI service.
// It recognizes problems from photos and answers tutor questions.
package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/smartmath/internal/capture"
	"github.com/abhisek/smartmath/internal/llm"
	"github.com/abhisek/smartmath/internal/solution"
	"github.com/abhisek/smartmath/internal/tutor"
)

const recognizeSystem = "Ти си експертен учител по математика. Целта ти е да обясняваш задачите ясно и педагогически на български език. Идентифицирай задачата от снимката точно. Ако няма задача, бъди честен."

const recognizeInstruction = "Анализирай това изображение. Идентифицирай математическата задача. Реши я стъпка по стъпка. Върни резултата в JSON формат. Обясненията и заглавията трябва да са на БЪЛГАРСКИ език. Математическите изрази трябва да са в LaTeX. ВАЖНО: Ако изображението НЕ съдържа математическа задача или не можеш да я разчетеш, в полето 'latex_expression' върни '\\text{Не открих задача}' (задължително използвай \\text{} командата за да се запазят интервалите), за 'final_answer' върни '-', за 'topic' върни 'Error' и празен масив за стъпки."

const tutorPreamble = `Current Problem Context:
Expression: %s
Answer: %s
Topic: %s

Ти си приятелски настроен AI учител по математика.
Отговаряй винаги на БЪЛГАРСКИ език.
Обяснявай просто ("Обясни като на 13-годишен").
Използвай LaTeX за математически нотации (обградени с единични $ знаци, напр. $x^2$).
Бъди окуражаващ.`

// TutorAck is the fixed model turn that follows the context preamble.
const TutorAck = "Разбрах. Готов съм да помогна с тази задача. Какъв е въпросът ти?"

// Fallback replies. Chat never surfaces an error to the screen.
const (
	FallbackError = "Нещо се обърка. Моля, опитай пак."
	FallbackEmpty = "Съжалявам, не можах да генерирам отговор."
)

// Config tunes the requests sent to the provider.
type Config struct {
	RecognizeMaxTokens int
	TutorMaxTokens     int
	TutorTemperature   float64
}

// DefaultConfig returns the production request settings.
func DefaultConfig() Config {
	return Config{
		RecognizeMaxTokens: 8192,
		TutorMaxTokens:     2048,
		TutorTemperature:   0.7,
	}
}

// Client talks to the AI provider. It holds no conversation state.
type Client struct {
	provider llm.Provider
	cfg      Config
	logger   *slog.Logger
}

// New creates a Client. A nil logger uses slog.Default().
func New(provider llm.Provider, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{provider: provider, cfg: cfg, logger: logger}
}

// RecognizeAndSolve sends the photo and returns the parsed solution. A
// sentinel solution is returned as a value, not an error; callers check
// IsSentinel. Malformed payloads are hard errors.
func (c *Client) RecognizeAndSolve(ctx context.Context, img capture.Image) (*solution.Solution, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeRecognize)
	resp, err := c.provider.Generate(ctx, llm.Request{
		System: recognizeSystem,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: recognizeInstruction,
			Images:  []llm.Image{{MIMEType: img.MIMEType, Data: img.Data}},
		}},
		Schema:    solution.Schema,
		MaxTokens: c.cfg.RecognizeMaxTokens,
	})
	if err != nil {
		c.logger.Error("recognition failed", "error", err)
		return nil, fmt.Errorf("recognize: %w", err)
	}

	sol, err := solution.Parse(string(resp.Content))
	if err != nil {
		c.logger.Error("recognition returned an unusable payload", "error", err)
		return nil, err
	}

	c.logger.Info("problem recognized",
		"topic", sol.Topic,
		"steps", len(sol.Steps),
		"sentinel", sol.IsSentinel(),
	)
	return sol, nil
}

// ContinueChat answers text in the context of sol. The whole conversation
// is rebuilt on every call. It always returns displayable text.
func (c *Client) ContinueChat(ctx context.Context, prior []tutor.Message, text string, sol *solution.Solution) string {
	ctx = llm.WithPurpose(ctx, llm.PurposeTutor)
	resp, err := c.provider.Generate(ctx, llm.Request{
		Messages:    BuildChatMessages(prior, text, sol),
		MaxTokens:   c.cfg.TutorMaxTokens,
		Temperature: c.cfg.TutorTemperature,
	})
	if errors.Is(err, llm.ErrNoContent) {
		c.logger.Warn("tutor reply was empty", "error", err)
		return FallbackEmpty
	}
	if err != nil {
		c.logger.Warn("tutor reply failed", "error", err)
		return FallbackError
	}

	reply := strings.TrimSpace(decodeText(resp.Content))
	if reply == "" {
		return FallbackEmpty
	}
	return reply
}

// BuildChatMessages assembles preamble, acknowledgement, transcript and the
// new message. Adjacent turns from the same role are merged because some
// providers require strict alternation.
func BuildChatMessages(prior []tutor.Message, text string, sol *solution.Solution) []llm.Message {
	msgs := []llm.Message{
		{Role: llm.RoleUser, Content: preamble(sol)},
		{Role: llm.RoleAssistant, Content: TutorAck},
	}
	appendTurn := func(role llm.Role, content string) {
		last := &msgs[len(msgs)-1]
		if last.Role == role {
			last.Content += "\n\n" + content
			return
		}
		msgs = append(msgs, llm.Message{Role: role, Content: content})
	}
	for _, m := range prior {
		role := llm.RoleUser
		if m.Role == tutor.RoleModel {
			role = llm.RoleAssistant
		}
		appendTurn(role, m.Text)
	}
	appendTurn(llm.RoleUser, text)
	return msgs
}

func preamble(sol *solution.Solution) string {
	if sol == nil {
		sol = &solution.Solution{}
	}
	return fmt.Sprintf(tutorPreamble, sol.Expression, sol.FinalAnswer, sol.Topic)
}

// decodeText unwraps a schemaless response. Providers return bare text;
// canned and proxied replies sometimes arrive quoted as a JSON string.
func decodeText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
