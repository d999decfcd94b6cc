package services

import (
	"testing"

	"github.com/eduport/examportal-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func twoQuestionExam() []models.Question {
	return []models.Question{
		{
			ID:    "q1",
			Marks: 2,
			Options: []models.Option{
				{ID: "q1-a", IsCorrect: true},
				{ID: "q1-b", IsCorrect: false},
			},
		},
		{
			ID:    "q2",
			Marks: 3,
			Options: []models.Option{
				{ID: "q2-a", IsCorrect: false},
				{ID: "q2-b", IsCorrect: true},
			},
		},
	}
}

func TestScoreAttempt(t *testing.T) {
	questions := twoQuestionExam()

	tests := []struct {
		name    string
		answers map[string]string
		want    int
	}{
		{
			name:    "all correct",
			answers: map[string]string{"q1": "q1-a", "q2": "q2-b"},
			want:    5,
		},
		{
			name:    "one correct one wrong",
			answers: map[string]string{"q1": "q1-a", "q2": "q2-a"},
			want:    2,
		},
		{
			name:    "skipped question contributes zero",
			answers: map[string]string{"q2": "q2-b"},
			want:    3,
		},
		{
			name:    "no answers",
			answers: map[string]string{},
			want:    0,
		},
		{
			name:    "empty selection treated as skipped",
			answers: map[string]string{"q1": "", "q2": "q2-b"},
			want:    3,
		},
		{
			name: "unknown option id scores zero",
			answers: map[string]string{
				"q1": "does-not-exist",
				"q2": "q2-b",
			},
			want: 3,
		},
		{
			name: "correct option of another question does not count",
			answers: map[string]string{
				"q1": "q2-b",
			},
			want: 0,
		},
		{
			name: "answers for unknown questions are ignored",
			answers: map[string]string{
				"q1":    "q1-a",
				"ghost": "q1-a",
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreAttempt(questions, tt.answers))
		})
	}
}

func TestScoreAttempt_OrderIndependent(t *testing.T) {
	questions := twoQuestionExam()
	answers := map[string]string{"q1": "q1-a", "q2": "q2-b"}

	reversed := []models.Question{questions[1], questions[0]}

	assert.Equal(t, ScoreAttempt(questions, answers), ScoreAttempt(reversed, answers))
}

func TestTotalMarks(t *testing.T) {
	assert.Equal(t, 5, TotalMarks(twoQuestionExam()))
	assert.Equal(t, 0, TotalMarks(nil))
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name       string
		score      int
		totalMarks int
		want       int
	}{
		{"perfect score", 5, 5, 100},
		{"zero score", 0, 5, 0},
		{"rounds up at half", 1, 8, 13},   // 12.5 -> 13
		{"rounds down below half", 1, 3, 33}, // 33.33 -> 33
		{"rounds up above half", 2, 3, 67},   // 66.67 -> 67
		{"zero total yields zero", 3, 0, 0},
		{"negative total yields zero", 3, -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Percentage(tt.score, tt.totalMarks))
		})
	}
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(50, 50))
	assert.True(t, Passed(51, 50))
	assert.False(t, Passed(49, 50))
	assert.True(t, Passed(0, 0))
}
