package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/llm"
	"github.com/stemsi/interview-sim/internal/model"
)

// ErrUnparseableEvaluation is returned when no score can be read from a
// model response.
var ErrUnparseableEvaluation = errors.New("evaluation response has no score")

// ErrEmptySummary is returned when the model produced no summary text.
var ErrEmptySummary = errors.New("summary response is empty")

// EvaluationRequest is one answer to grade.
type EvaluationRequest struct {
	Role       string
	Question   string
	Difficulty model.Difficulty
	Answer     string
}

// Evaluation is the graded result for one answer.
type Evaluation struct {
	Score    int
	Feedback string
}

// SummaryRequest describes a finished interview.
type SummaryRequest struct {
	Name         string
	Role         string
	Questions    []model.Question
	Answers      []model.Answer
	OverallScore int
}

// Scorer grades single answers and summarises whole interviews.
type Scorer interface {
	Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

// LLMScorer implements Scorer on an llm.Provider.
type LLMScorer struct {
	provider llm.Provider
	log      zerolog.Logger
}

// NewLLMScorer creates a new LLMScorer.
func NewLLMScorer(provider llm.Provider, log zerolog.Logger) *LLMScorer {
	return &LLMScorer{
		provider: provider,
		log:      log.With().Str("component", "scorer").Logger(),
	}
}

func (s *LLMScorer) Evaluate(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	prompt := fmt.Sprintf(`Evaluate this answer for the following %s question for a %s position:

Question: %s
Answer: %s

Provide a score from 0-10 and brief feedback.
Format your response as a JSON object with 'score' (number) and 'feedback' (string) properties.`,
		strings.ToLower(string(req.Difficulty)), req.Role, req.Question, req.Answer)

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System:      "You are an expert technical interviewer. Evaluate answers fairly and provide constructive feedback.",
		Prompt:      prompt,
		JSON:        true,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}

	eval, err := ParseEvaluation(resp.Text)
	if err != nil {
		s.log.Warn().Err(err).Str("model", resp.Model).Msg("Unusable evaluation")
		return nil, err
	}
	return eval, nil
}

func (s *LLMScorer) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	var b strings.Builder
	for i, a := range req.Answers {
		question := ""
		if i < len(req.Questions) {
			question = req.Questions[i].Text
		}
		score := "N/A"
		if a.Score != nil {
			score = strconv.Itoa(*a.Score)
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\nScore: %s/10\n\n", i+1, question, i+1, a.Text, score)
	}

	prompt := fmt.Sprintf(`Based on the following interview for a %s position, provide a brief summary of the candidate's performance:

Candidate: %s
Overall score: %d/100

%sProvide a concise summary (2-3 sentences) of the candidate's strengths and areas for improvement.`,
		req.Role, req.Name, req.OverallScore, b.String())

	resp, err := s.provider.Generate(ctx, llm.GenerateRequest{
		System:      "You are an expert technical interviewer. Provide concise and insightful candidate assessments.",
		Prompt:      prompt,
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("summarize interview: %w", err)
	}

	summary := strings.TrimSpace(stripFences(resp.Text))
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

var (
	scoreRe    = regexp.MustCompile(`(?i)score\D{0,20}?(\d+(?:\.\d+)?)`)
	feedbackRe = regexp.MustCompile(`(?is)feedback["']?\s*[:=-]?\s*["']?(.+)`)
)

// ParseEvaluation reads a score and feedback from a model response. It accepts
// a JSON object and falls back to scanning free text for "score ... N".
// Scores are rounded and clamped to 0..10.
func ParseEvaluation(content string) (*Evaluation, error) {
	cleaned := stripFences(content)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		if score, ok := numberValue(obj["score"]); ok {
			feedback, _ := obj["feedback"].(string)
			return &Evaluation{Score: ClampAnswerScore(score), Feedback: strings.TrimSpace(feedback)}, nil
		}
	}

	m := scoreRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil, ErrUnparseableEvaluation
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, ErrUnparseableEvaluation
	}

	feedback := cleaned
	if fm := feedbackRe.FindStringSubmatch(cleaned); fm != nil {
		feedback = strings.Trim(strings.TrimSpace(fm[1]), `"'}`)
	}
	return &Evaluation{Score: ClampAnswerScore(score), Feedback: strings.TrimSpace(feedback)}, nil
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// ClampAnswerScore rounds s and bounds it to 0..10.
func ClampAnswerScore(s float64) int {
	if math.IsNaN(s) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(10, s))))
}
