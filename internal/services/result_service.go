package services

import (
	"context"
	"fmt"
	"time"

	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/eduport/examportal-service/internal/utils"
)

type resultService struct {
	repo   repositories.Repository
	logger utils.Logger
	now    func() time.Time
}

func NewResultService(repo repositories.Repository, logger utils.Logger) ResultService {
	return &resultService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// GetResult returns the outcome of a completed attempt, gated on the exam's
// publication settings. Before publication the student sees only the status
// and the scheduled release date; admins always see the full result.
func (s *resultService) GetResult(ctx context.Context, attemptID, callerID string) (*ResultResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithExam(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidAttempt
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	isAdmin := false
	if attempt.UserID != callerID {
		caller, err := s.repo.User().GetByID(ctx, callerID)
		if err != nil || !caller.IsAdmin() {
			return nil, NewPermissionError(callerID, attemptID, "attempt", "read_result", "not owner or insufficient permissions")
		}
		isAdmin = true
	}

	if attempt.Status != models.AttemptCompleted {
		return nil, ErrAttemptNotActive
	}

	exam := &attempt.Exam
	resp := &ResultResponse{
		AttemptID:         attempt.ID,
		ExamID:            exam.ID,
		ExamTitle:         exam.Title,
		Published:         exam.ResultsPublished(s.now()),
		ResultDate:        exam.ResultDate,
		IsRetestRequested: attempt.IsRetestRequested,
		AdminRemark:       attempt.AdminRemark,
	}

	if !resp.Published && !isAdmin {
		// Before publication only the answered count is visible, never the
		// answers themselves.
		answered, err := s.repo.Answer().CountByAttempt(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count answers: %w", err)
		}
		resp.QuestionsAnswered = int(answered)
		return resp, nil
	}

	answers, err := s.repo.Answer().GetByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	score := 0
	if attempt.Score != nil {
		score = *attempt.Score
	}

	// Totals come from the exam's current question set, so a result viewed
	// after the questions change is reported against the new denominator.
	totalMarks := TotalMarks(exam.Questions)
	percentage := Percentage(score, totalMarks)

	resp.QuestionsAnswered = len(answers)
	resp.Score = score
	resp.TotalMarks = totalMarks
	resp.Percentage = percentage
	resp.Passed = Passed(percentage, exam.PassingPercentage)
	resp.SubmitTime = attempt.SubmitTime
	resp.Answers = buildAnswerReviews(exam.Questions, answers)

	return resp, nil
}

// GetLatestResult is the dashboard shortcut: it resolves the caller's most
// recent COMPLETED attempt on the exam and returns its result.
func (s *resultService) GetLatestResult(ctx context.Context, examID, callerID string) (*ResultResponse, error) {
	attempt, err := s.repo.Attempt().GetLatestCompleted(ctx, callerID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest attempt: %w", err)
	}
	if attempt == nil {
		return nil, ErrNotFound
	}
	return s.GetResult(ctx, attempt.ID, callerID)
}

// buildAnswerReviews joins stored answers against the current question set.
// Answers to questions that were since removed are dropped from the review.
func buildAnswerReviews(questions []models.Question, answers []*models.Answer) []AnswerReview {
	byQuestion := make(map[string]*models.Question, len(questions))
	for i := range questions {
		byQuestion[questions[i].ID] = &questions[i]
	}

	reviews := make([]AnswerReview, 0, len(answers))
	for _, answer := range answers {
		question, ok := byQuestion[answer.QuestionID]
		if !ok {
			continue
		}
		review := AnswerReview{
			QuestionID:       question.ID,
			QuestionText:     question.Text,
			Marks:            question.Marks,
			SelectedOptionID: answer.SelectedOptionID,
			IsMarked:         answer.IsMarked,
		}
		for _, option := range question.Options {
			if option.ID == answer.SelectedOptionID {
				review.SelectedOptionText = option.Text
				review.Correct = option.IsCorrect
				break
			}
		}
		reviews = append(reviews, review)
	}
	return reviews
}
