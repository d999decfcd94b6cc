package services

import (
	"github.com/eduport/examportal-service/internal/models"
)

// EffectiveLimit is the attempt cap actually enforced for a student on an
// exam: a non-nil per-assignment override always wins, regardless of how it
// compares to the exam default.
func EffectiveLimit(assignment *models.ExamAssignment, exam *models.Exam) int {
	if assignment != nil && assignment.AllowedAttempts != nil {
		return *assignment.AllowedAttempts
	}
	return exam.MaxAttempts
}

// GrantLimit computes the override written by an admin re-attempt grant:
// one more than the attempts already used. Recomputing from actual usage,
// instead of incrementing whatever override was there before, keeps a stale
// override from silently granting extra attempts after repeated grants.
func GrantLimit(attemptsUsed int) int {
	return attemptsUsed + 1
}
