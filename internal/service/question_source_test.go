package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/interview-sim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestionTexts(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "array of objects",
			content: `[{"question":"A?","difficulty":"easy","timeLimit":20},{"question":"B?"}]`,
			want:    []string{"A?", "B?"},
		},
		{
			name:    "text and content keys",
			content: `[{"text":"A?"},{"content":"B?"}]`,
			want:    []string{"A?", "B?"},
		},
		{
			name:    "questions wrapper in fence",
			content: "```json\n{\"questions\":[{\"question\":\"A?\"},{\"question\":\"B?\"}]}\n```",
			want:    []string{"A?", "B?"},
		},
		{
			name:    "data wrapper of strings",
			content: `{"data":["A?","B?","C?"]}`,
			want:    []string{"A?", "B?"},
		},
		{
			name:    "numbered lines",
			content: "1. A?\n\n2) B?\n",
			want:    []string{"A?", "B?"},
		},
		{
			name:    "bulleted lines",
			content: "- A?\n* B?",
			want:    []string{"A?", "B?"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuestionTexts(tt.content, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuestionTextsIncomplete(t *testing.T) {
	_, err := ParseQuestionTexts(`[{"question":"only one"},{"question":"  "}]`, 2)
	assert.ErrorIs(t, err, ErrIncompleteBatch)

	_, err = ParseQuestionTexts("", 1)
	assert.ErrorIs(t, err, ErrIncompleteBatch)
}

func TestLLMQuestionSourceBandsByPosition(t *testing.T) {
	provider := &stubProvider{text: `[
		{"question":"Q1","difficulty":"hard","timeLimit":5},
		{"question":"Q2","difficulty":"hard"},
		{"question":"Q3"},
		{"question":"Q4"},
		{"question":"Q5","difficulty":"easy"},
		{"question":"Q6"}
	]`}
	source := NewLLMQuestionSource(provider, zerolog.Nop())

	qs, err := source.GenerateBatch(context.Background(), QuestionRequest{Role: "Go Developer", Count: 6})
	require.NoError(t, err)
	assertBands(t, qs)
	assert.Equal(t, "Q1", qs[0].Text)
	assert.Equal(t, "Q6", qs[5].Text)
	assert.NotEqual(t, qs[0].ID, qs[1].ID)
	assert.Contains(t, provider.last.Prompt, "Go Developer")
	assert.True(t, provider.last.JSON)
}

func TestLLMQuestionSourceShortBatchFails(t *testing.T) {
	provider := &stubProvider{text: `[{"question":"Q1"}]`}
	source := NewLLMQuestionSource(provider, zerolog.Nop())

	_, err := source.GenerateBatch(context.Background(), QuestionRequest{Role: model.DefaultRole})
	assert.ErrorIs(t, err, ErrIncompleteBatch)
}

func TestDefaultQuestions(t *testing.T) {
	a := DefaultQuestions()
	b := DefaultQuestions()
	assertBands(t, a)
	assert.Equal(t, a[2].Text, b[2].Text)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestBroadcasterKeepsLatestSnapshot(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe("c1")
	assert.Equal(t, 1, b.Subscribers("c1"))

	b.Publish(&model.Candidate{ID: "c1", CurrentQuestionIndex: 1})
	b.Publish(&model.Candidate{ID: "c1", CurrentQuestionIndex: 2})
	b.Publish(&model.Candidate{ID: "other"})

	got := <-ch
	assert.Equal(t, 2, got.CurrentQuestionIndex)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers("c1"))
}
