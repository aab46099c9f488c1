package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() *Quiz {
	return &Quiz{
		ID:   "q-1",
		Name: "Capitals",
		Code: "CAP234",
		Questions: Questions{
			{QuestionText: "France?", Options: []Option{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}}},
			{QuestionText: "Primes?", Options: []Option{{Text: "2", IsCorrect: true}, {Text: "4"}, {Text: "5", IsCorrect: true}}},
		},
	}
}

func TestPublicViewStripsCorrectness(t *testing.T) {
	view := sampleQuiz().PublicView()

	raw, err := json.Marshal(view)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "is_correct")
	assert.NotContains(t, string(raw), "isCorrect")
	require.Len(t, view.Questions, 2)
	assert.Equal(t, "Lyon", view.Questions[0].Options[1].Text)
}

func TestCorrectOptions(t *testing.T) {
	quiz := sampleQuiz()
	assert.Equal(t, []int{0}, quiz.Questions[0].CorrectOptions())
	assert.Equal(t, []int{0, 2}, quiz.Questions[1].CorrectOptions())
}

func TestQuestionsRoundTripThroughDocument(t *testing.T) {
	value, err := sampleQuiz().Questions.Value()
	require.NoError(t, err)
	assert.Contains(t, string(value.(string)), `"questions":`)

	var decoded Questions
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, sampleQuiz().Questions, decoded)
}

func TestAnswersScanFromStringKeys(t *testing.T) {
	var answers Answers
	require.NoError(t, answers.Scan([]byte(`{"0":[1],"2":[0,3]}`)))
	assert.Equal(t, Answers{0: {1}, 2: {0, 3}}, answers)

	require.NoError(t, answers.Scan(nil))
	assert.Empty(t, answers)
}

func TestValidateQuestions(t *testing.T) {
	tests := []struct {
		name      string
		questions []Question
		wantErr   error
	}{
		{name: "valid", questions: sampleQuiz().Questions},
		{name: "empty", questions: nil, wantErr: errNoQuestions},
		{
			name:      "single option",
			questions: []Question{{QuestionText: "q", Options: []Option{{Text: "a", IsCorrect: true}}}},
			wantErr:   errTooFewOptions,
		},
		{
			name:      "no correct option",
			questions: []Question{{QuestionText: "q", Options: []Option{{Text: "a"}, {Text: "b"}}}},
			wantErr:   errNoCorrectOption,
		},
		{
			name:      "blank option text",
			questions: []Question{{QuestionText: "q", Options: []Option{{Text: "a", IsCorrect: true}, {Text: ""}}}},
			wantErr:   errEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestions(tt.questions)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
