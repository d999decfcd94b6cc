package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduport/examportal-service/internal/cache"
	"github.com/eduport/examportal-service/internal/events"
	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/eduport/examportal-service/internal/utils"
)

// errConcurrentSubmit aborts the submission transaction when the attempt was
// finalized by a concurrent request between load and completion.
var errConcurrentSubmit = errors.New("attempt completed concurrently")

type attemptService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    utils.Logger
	validator *utils.Validator
	now       func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
	validator *utils.Validator,
) AttemptService {
	return &attemptService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

func playPath(examID string) string {
	return "/exam/" + examID + "/play"
}

func resultPath(attemptID string) string {
	return "/dashboard/results/" + attemptID
}

// ===== ADMISSION =====

func (s *attemptService) Admit(ctx context.Context, examID, userID string) (*AdmissionResult, error) {
	s.logger.Info("Admitting student to exam",
		"exam_id", examID,
		"user_id", userID)

	// Re-entering the exam view resumes the running attempt with its original
	// deadline; it never creates a second attempt or resets the timer.
	if started, err := s.repo.Attempt().GetStarted(ctx, userID, examID); err != nil {
		return nil, fmt.Errorf("failed to check for active attempt: %w", err)
	} else if started != nil {
		return s.resumeResult(ctx, started)
	}

	var attempt *models.Attempt
	var exam *models.Exam

	// Limit check and insert run as one unit. The partial unique index on
	// STARTED attempts backstops the count-then-insert window: a concurrent
	// admission loses with a duplicate-key error and falls back to resume.
	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		assignment, err := tx.Assignment().GetByUserAndExam(ctx, userID, examID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrNotAssigned
			}
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		exam, err = tx.Exam().GetByID(ctx, examID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to load exam: %w", err)
		}

		now := s.now()
		if !exam.IsActive {
			return ErrExamNotActive
		}
		if !exam.AdmissionOpen(now) {
			return ErrExamWindowClosed
		}

		// An exam with no questions is not playable.
		questionCount, err := tx.Exam().CountQuestions(ctx, examID)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}
		if questionCount == 0 {
			return ErrExamNotActive
		}

		limit := EffectiveLimit(assignment, exam)
		used, err := tx.Attempt().CountByUserAndExam(ctx, userID, examID)
		if err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}
		if int(used) >= limit {
			return NewAttemptLimitError(examID, userID, limit, int(used))
		}

		attempt = &models.Attempt{
			ExamID:    examID,
			UserID:    userID,
			Status:    models.AttemptStarted,
			StartTime: now,
		}
		return tx.Attempt().Create(ctx, attempt)
	})

	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			// Lost the race against another admission for the same slot.
			started, getErr := s.repo.Attempt().GetStarted(ctx, userID, examID)
			if getErr == nil && started != nil {
				return s.resumeResult(ctx, started)
			}
		}
		return nil, err
	}

	deadline := attempt.Deadline(exam)

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"exam_id", examID,
		"user_id", userID,
		"deadline", deadline)

	s.publishAttemptStarted(ctx, attempt, exam, deadline, false)

	return &AdmissionResult{
		Attempt:        attempt,
		Resumed:        false,
		Deadline:       deadline,
		RedirectTarget: playPath(examID),
	}, nil
}

func (s *attemptService) resumeResult(ctx context.Context, attempt *models.Attempt) (*AdmissionResult, error) {
	exam, err := s.repo.Exam().GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load exam for resumption: %w", err)
	}

	s.logger.Info("Resuming existing attempt",
		"attempt_id", attempt.ID,
		"exam_id", attempt.ExamID,
		"user_id", attempt.UserID)

	return &AdmissionResult{
		Attempt:        attempt,
		Resumed:        true,
		Deadline:       attempt.Deadline(exam),
		RedirectTarget: playPath(attempt.ExamID),
	}, nil
}

// ===== SUBMISSION =====

func (s *attemptService) Submit(ctx context.Context, req *SubmitRequest, userID string) (*SubmissionResult, error) {
	s.logger.Info("Submitting attempt",
		"attempt_id", req.AttemptID,
		"user_id", userID,
		"answers_count", len(req.Answers))

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempt().GetByIDWithExam(ctx, req.AttemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidAttempt
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, req.AttemptID, "attempt", "submit", "not owned by student")
	}

	// Duplicate submission (double-click, network retry) is not an error:
	// the stored outcome is returned and nothing is re-scored.
	if attempt.Status == models.AttemptCompleted {
		return s.completedResult(attempt), nil
	}
	if attempt.Status != models.AttemptStarted {
		return nil, ErrAttemptNotActive
	}

	questions := attempt.Exam.Questions
	score := ScoreAttempt(questions, req.Answers)
	answers := buildAnswerRecords(attempt.ID, questions, req.Answers, req.MarkedIDs)
	submitTime := s.now()

	// Answers and the COMPLETED transition commit or roll back together.
	// No partial score state is ever persisted.
	txErr := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if err := tx.Answer().CreateBatch(ctx, answers); err != nil {
			return fmt.Errorf("failed to store answers: %w", err)
		}
		transitioned, err := tx.Attempt().Complete(ctx, attempt.ID, submitTime, score)
		if err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}
		if !transitioned {
			return errConcurrentSubmit
		}
		return nil
	})

	if txErr != nil {
		// Collision recovery: if a concurrent submit won the race the caller
		// still observes success, with the original stored outcome.
		current, getErr := s.repo.Attempt().GetByID(ctx, attempt.ID)
		if getErr == nil && current.Status == models.AttemptCompleted {
			current.Exam = attempt.Exam
			return s.completedResult(current), nil
		}
		s.logger.LogError(txErr, "Attempt submission failed",
			"attempt_id", attempt.ID,
			"user_id", userID)
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, txErr)
	}

	totalMarks := TotalMarks(questions)
	percentage := Percentage(score, totalMarks)
	passed := Passed(percentage, attempt.Exam.PassingPercentage)

	s.logger.Info("Attempt submitted",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"score", score,
		"total_marks", totalMarks)

	s.publishAttemptSubmitted(ctx, attempt, submitTime, score, totalMarks, percentage, passed)
	s.auditAttemptCompleted(ctx, attempt, score)

	return &SubmissionResult{
		AttemptID:      attempt.ID,
		Score:          score,
		TotalMarks:     totalMarks,
		Percentage:     percentage,
		Passed:         passed,
		RedirectTarget: resultPath(attempt.ID),
	}, nil
}

// completedResult rebuilds the submission outcome from a COMPLETED attempt
// for the idempotent-duplicate path.
func (s *attemptService) completedResult(attempt *models.Attempt) *SubmissionResult {
	score := 0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	totalMarks := TotalMarks(attempt.Exam.Questions)
	percentage := Percentage(score, totalMarks)

	return &SubmissionResult{
		AttemptID:        attempt.ID,
		Score:            score,
		TotalMarks:       totalMarks,
		Percentage:       percentage,
		Passed:           Passed(percentage, attempt.Exam.PassingPercentage),
		AlreadySubmitted: true,
		RedirectTarget:   resultPath(attempt.ID),
	}
}

// buildAnswerRecords produces one Answer per question the student actually
// answered; absence means "skipped", not "wrong-but-recorded". Entries for
// unknown question ids are dropped, never an error.
func buildAnswerRecords(attemptID string, questions []models.Question, answers map[string]string, markedIDs []string) []*models.Answer {
	marked := make(map[string]bool, len(markedIDs))
	for _, id := range markedIDs {
		marked[id] = true
	}

	records := make([]*models.Answer, 0, len(answers))
	for _, q := range questions {
		selectedOptionID, ok := answers[q.ID]
		if !ok || selectedOptionID == "" {
			continue
		}
		records = append(records, &models.Answer{
			AttemptID:        attemptID,
			QuestionID:       q.ID,
			SelectedOptionID: selectedOptionID,
			IsMarked:         marked[q.ID],
		})
	}
	return records
}
