package services

import (
	"math"

	"github.com/eduport/examportal-service/internal/models"
)

// Scoring is a pure pass over the question snapshot loaded at submission
// time. It never reads the store and is order-independent: permuting the
// question list or the answer map produces the same total.

// ScoreAttempt sums the marks of every question whose selected option is a
// real option of that question and is flagged correct. Unanswered questions
// and unknown option ids contribute zero; they never fail the pass.
func ScoreAttempt(questions []models.Question, answers map[string]string) int {
	score := 0
	for _, q := range questions {
		selectedOptionID, ok := answers[q.ID]
		if !ok || selectedOptionID == "" {
			continue
		}
		for _, opt := range q.Options {
			if opt.ID == selectedOptionID {
				if opt.IsCorrect {
					score += q.Marks
				}
				break
			}
		}
	}
	return score
}

// TotalMarks is the maximum achievable score over the exam's current
// questions. Deleting questions after attempts were scored shrinks this
// total; historical percentages then shift. That inconsistency is accepted,
// not corrected.
func TotalMarks(questions []models.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Marks
	}
	return total
}

// Percentage converts a score to a nearest-integer percentage. A zero total
// yields zero rather than dividing by it.
func Percentage(score, totalMarks int) int {
	if totalMarks <= 0 {
		return 0
	}
	return int(math.Round(float64(score) * 100 / float64(totalMarks)))
}

// Passed is derived, never stored.
func Passed(percentage, passingPercentage int) bool {
	return percentage >= passingPercentage
}
