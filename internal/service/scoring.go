package service

import (
	"sort"

	"github.com/RubachokBoss/quizspark/internal/models"
)

// ScoreAttempt сравнивает выбранные варианты с правильными по каждому вопросу.
// Вопрос засчитывается только при точном совпадении множеств; индексы вне
// диапазона или пропущенный ответ делают вопрос неверным.
func ScoreAttempt(questions []models.Question, answers models.Answers) (int, []models.QuestionResult) {
	score := 0
	results := make([]models.QuestionResult, len(questions))

	for i, q := range questions {
		correct := q.CorrectOptions()
		selected, valid := normalizeSelection(answers[i], len(q.Options))

		isCorrect := valid && len(selected) > 0 && sameSet(selected, correct)
		if isCorrect {
			score++
		}

		results[i] = models.QuestionResult{
			QuestionIndex:   i,
			QuestionText:    q.QuestionText,
			IsCorrect:       isCorrect,
			SelectedOptions: selected,
			CorrectOptions:  correct,
		}
	}

	return score, results
}

// AnnotateAttempt строит разбор попытки для экрана результатов.
func AnnotateAttempt(questions []models.Question, answers models.Answers) []models.AnnotatedQuestion {
	_, results := ScoreAttempt(questions, answers)

	annotated := make([]models.AnnotatedQuestion, len(questions))
	for i, q := range questions {
		picked := make(map[int]bool, len(results[i].SelectedOptions))
		for _, idx := range results[i].SelectedOptions {
			picked[idx] = true
		}

		options := make([]models.AnnotatedOption, len(q.Options))
		for j, opt := range q.Options {
			options[j] = models.AnnotatedOption{
				Text:            opt.Text,
				IsSelected:      picked[j],
				IsCorrectAnswer: opt.IsCorrect,
			}
		}

		annotated[i] = models.AnnotatedQuestion{
			QuestionText: q.QuestionText,
			IsCorrect:    results[i].IsCorrect,
			Options:      options,
		}
	}

	return annotated
}

func normalizeSelection(selected []int, optionCount int) ([]int, bool) {
	seen := make(map[int]struct{}, len(selected))
	out := make([]int, 0, len(selected))
	valid := true

	for _, idx := range selected {
		if idx < 0 || idx >= optionCount {
			valid = false
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}

	sort.Ints(out)
	return out, valid
}

// sameSet ожидает отсортированные срезы без повторов.
func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
