package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/llm"
	"github.com/stemsi/interview-sim/internal/model"
)

// ErrIncompleteBatch is returned when fewer usable questions than requested
// could be produced.
var ErrIncompleteBatch = errors.New("question batch is incomplete")

// QuestionRequest asks for an ordered batch of questions.
type QuestionRequest struct {
	Role  string
	Count int
}

// QuestionSource supplies an ordered batch of interview questions.
type QuestionSource interface {
	GenerateBatch(ctx context.Context, req QuestionRequest) ([]model.Question, error)
}

// LLMQuestionSource generates the whole batch in one model call.
type LLMQuestionSource struct {
	provider llm.Provider
	log      zerolog.Logger
}

// NewLLMQuestionSource creates a new LLMQuestionSource.
func NewLLMQuestionSource(provider llm.Provider, log zerolog.Logger) *LLMQuestionSource {
	return &LLMQuestionSource{
		provider: provider,
		log:      log.With().Str("component", "question_source").Logger(),
	}
}

func (s *LLMQuestionSource) GenerateBatch(ctx context.Context, req QuestionRequest) ([]model.Question, error) {
	if req.Count <= 0 {
		req.Count = model.QuestionsPerInterview
	}

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System:      "You are an expert technical interviewer. Generate challenging and relevant interview questions.",
		Prompt:      questionPrompt(req),
		JSON:        true,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	texts, err := ParseQuestionTexts(resp.Text, req.Count)
	if err != nil {
		s.log.Warn().Err(err).Str("model", resp.Model).Int("length", len(resp.Text)).Msg("Unusable question batch")
		return nil, err
	}

	s.log.Info().Str("model", resp.Model).Dur("latency", resp.Latency).Msg("Question batch generated")
	return BandQuestions(texts, uuid.NewString), nil
}

func questionPrompt(req QuestionRequest) string {
	return fmt.Sprintf(`Generate %d technical interview questions for a %s position.
Order them by difficulty: 2 easy, then 2 medium, then 2 hard.
Format as a JSON array of objects with 'question', 'difficulty', and 'timeLimit' (in seconds) properties.
Make timeLimit 20 for easy, 60 for medium, and 120 for hard questions. Only return the JSON array.`,
		req.Count, req.Role)
}

// BandQuestions turns ordered texts into questions carrying the difficulty
// and time limit of their position.
func BandQuestions(texts []string, newID func() string) []model.Question {
	out := make([]model.Question, len(texts))
	for i, t := range texts {
		out[i] = model.Question{
			ID:         newID(),
			Text:       t,
			Difficulty: model.DifficultyForIndex(i),
			TimeLimit:  model.TimeLimitForIndex(i),
		}
	}
	return out
}

var (
	fenceRe      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	listPrefixRe = regexp.MustCompile(`^\s*(?:(?:Q(?:uestion)?\s*)?\d+\s*[.):-]|[-*•])\s*`)
)

// stripFences removes a surrounding markdown code block.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

// ParseQuestionTexts extracts count question texts from a model response.
// Structured JSON is preferred (a bare array, or an object wrapping one under
// "questions" or "data"); anything else degrades to one question per line.
func ParseQuestionTexts(content string, count int) ([]string, error) {
	cleaned := stripFences(content)

	var texts []string
	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil {
		texts = questionTextsFromJSON(parsed)
	} else {
		texts = questionTextsFromLines(cleaned)
	}

	if len(texts) < count {
		return nil, fmt.Errorf("%w: got %d of %d", ErrIncompleteBatch, len(texts), count)
	}
	return texts[:count], nil
}

func questionTextsFromJSON(v any) []string {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, key := range []string{"questions", "data"} {
			if arr, ok := t[key].([]any); ok {
				items = arr
				break
			}
		}
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		var text string
		switch q := item.(type) {
		case string:
			text = q
		case map[string]any:
			for _, key := range []string{"question", "text", "content"} {
				if s, ok := q[key].(string); ok && strings.TrimSpace(s) != "" {
					text = s
					break
				}
			}
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

func questionTextsFromLines(content string) []string {
	var texts []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(listPrefixRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		texts = append(texts, line)
	}
	return texts
}
