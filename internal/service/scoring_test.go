package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/quizspark/internal/models"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			QuestionText: "2+2?",
			Options: []models.Option{
				{Text: "3"},
				{Text: "4", IsCorrect: true},
			},
		},
		{
			QuestionText: "Primes?",
			Options: []models.Option{
				{Text: "2", IsCorrect: true},
				{Text: "4"},
				{Text: "5", IsCorrect: true},
			},
		},
	}
}

func TestScoreAttempt(t *testing.T) {
	tests := []struct {
		name    string
		answers models.Answers
		score   int
		correct []bool
	}{
		{
			name:    "all correct",
			answers: models.Answers{0: {1}, 1: {0, 2}},
			score:   2,
			correct: []bool{true, true},
		},
		{
			name:    "partial multi-select is wrong",
			answers: models.Answers{0: {1}, 1: {0}},
			score:   1,
			correct: []bool{true, false},
		},
		{
			name:    "superset is wrong",
			answers: models.Answers{0: {0, 1}, 1: {0, 2}},
			score:   1,
			correct: []bool{false, true},
		},
		{
			name:    "order and duplicates do not matter",
			answers: models.Answers{0: {1, 1}, 1: {2, 0, 2}},
			score:   2,
			correct: []bool{true, true},
		},
		{
			name:    "missing answer is wrong",
			answers: models.Answers{1: {0, 2}},
			score:   1,
			correct: []bool{false, true},
		},
		{
			name:    "out of range index is wrong",
			answers: models.Answers{0: {1, 7}, 1: {0, 2}},
			score:   1,
			correct: []bool{false, true},
		},
		{
			name:    "negative index is wrong",
			answers: models.Answers{0: {-1}, 1: {0, 2}},
			score:   1,
			correct: []bool{false, true},
		},
		{
			name:    "nil answers",
			answers: nil,
			score:   0,
			correct: []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, results := ScoreAttempt(sampleQuestions(), tt.answers)

			assert.Equal(t, tt.score, score)
			require.Len(t, results, len(tt.correct))
			for i, want := range tt.correct {
				assert.Equal(t, want, results[i].IsCorrect, "question %d", i)
				assert.Equal(t, i, results[i].QuestionIndex)
			}
		})
	}
}

func TestScoreAttempt_NormalizesSelection(t *testing.T) {
	_, results := ScoreAttempt(sampleQuestions(), models.Answers{1: {2, 0, 2}})

	assert.Equal(t, []int{0, 2}, results[1].SelectedOptions)
	assert.Equal(t, []int{0, 2}, results[1].CorrectOptions)
	assert.Empty(t, results[0].SelectedOptions)
}

func TestScoreAttempt_IsBoundedByQuestionCount(t *testing.T) {
	answers := models.Answers{0: {1}, 1: {0, 2}, 2: {0}, 5: {1}}

	score, results := ScoreAttempt(sampleQuestions(), answers)

	assert.Equal(t, 2, score)
	assert.Len(t, results, 2)
}

func TestAnnotateAttempt(t *testing.T) {
	annotated := AnnotateAttempt(sampleQuestions(), models.Answers{0: {0}, 1: {0, 2}})

	require.Len(t, annotated, 2)

	assert.False(t, annotated[0].IsCorrect)
	assert.True(t, annotated[0].Options[0].IsSelected)
	assert.False(t, annotated[0].Options[0].IsCorrectAnswer)
	assert.False(t, annotated[0].Options[1].IsSelected)
	assert.True(t, annotated[0].Options[1].IsCorrectAnswer)

	assert.True(t, annotated[1].IsCorrect)
	assert.Equal(t, "5", annotated[1].Options[2].Text)
	assert.True(t, annotated[1].Options[2].IsSelected)
}
