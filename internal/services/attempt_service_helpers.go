package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/eduport/examportal-service/internal/cache"
	"github.com/eduport/examportal-service/internal/events"
	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"gorm.io/datatypes"
)

const examSnapshotTTL = 5 * time.Minute

func examSnapshotKey(examID string) string {
	return "exam:snapshot:" + examID
}

// ===== PLAY VIEW =====

func (s *attemptService) PlayView(ctx context.Context, examID, userID string) (*PlayViewResponse, error) {
	attempt, err := s.repo.Attempt().GetStarted(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for active attempt: %w", err)
	}
	if attempt == nil {
		return nil, ErrAttemptNotActive
	}

	exam, questions, err := s.examSnapshot(ctx, examID)
	if err != nil {
		return nil, err
	}

	if exam.RandomizeQuestions {
		shuffled := make([]PlayQuestion, len(questions))
		copy(shuffled, questions)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		questions = shuffled
	}

	return &PlayViewResponse{
		AttemptID: attempt.ID,
		ExamID:    exam.ID,
		Title:     exam.Title,
		Duration:  exam.Duration,
		Deadline:  attempt.Deadline(exam),
		Questions: questions,
	}, nil
}

// examSnapshot serves the client-facing question set, cached in Redis so a
// room full of students counting down does not hammer the store. Correctness
// flags are stripped before the snapshot is cached.
func (s *attemptService) examSnapshot(ctx context.Context, examID string) (*models.Exam, []PlayQuestion, error) {
	type snapshot struct {
		Exam      models.Exam    `json:"exam"`
		Questions []PlayQuestion `json:"questions"`
	}

	var cached snapshot
	if err := s.cache.Get(ctx, examSnapshotKey(examID), &cached); err == nil {
		return &cached.Exam, cached.Questions, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("exam snapshot cache read failed", "exam_id", examID, "error", err)
	}

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrExamNotFound
		}
		return nil, nil, fmt.Errorf("failed to load exam: %w", err)
	}

	questions := make([]PlayQuestion, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		pq := PlayQuestion{
			ID:      q.ID,
			Text:    q.Text,
			Marks:   q.Marks,
			Options: make([]PlayOption, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			pq.Options = append(pq.Options, PlayOption{ID: opt.ID, Text: opt.Text})
		}
		questions = append(questions, pq)
	}

	bare := *exam
	bare.Questions = nil
	if err := s.cache.Set(ctx, examSnapshotKey(examID), snapshot{Exam: bare, Questions: questions}, examSnapshotTTL); err != nil {
		s.logger.Warn("exam snapshot cache write failed", "exam_id", examID, "error", err)
	}

	return &bare, questions, nil
}

// ===== TIME MANAGEMENT =====

// TimeRemaining reports whole seconds until the attempt deadline, floored at
// zero. The countdown the session client renders is advisory; this value is
// derived from the server-assigned start time only.
func (s *attemptService) TimeRemaining(ctx context.Context, attemptID, userID string) (int, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrInvalidAttempt
		}
		return 0, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.UserID != userID {
		return 0, NewPermissionError(userID, attemptID, "attempt", "get_time_remaining", "not owned by student")
	}

	if attempt.Status != models.AttemptStarted {
		return 0, ErrAttemptNotActive
	}

	exam, err := s.repo.Exam().GetByID(ctx, attempt.ExamID)
	if err != nil {
		return 0, fmt.Errorf("failed to load exam: %w", err)
	}

	remaining := int(attempt.Deadline(exam).Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ===== GET / LIST OPERATIONS =====

func (s *attemptService) GetByID(ctx context.Context, attemptID, userID string) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidAttempt
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.UserID != userID {
		caller, err := s.repo.User().GetByID(ctx, userID)
		if err != nil || !caller.IsAdmin() {
			return nil, NewPermissionError(userID, attemptID, "attempt", "read", "not owner or insufficient permissions")
		}
	}

	return attempt, nil
}

func (s *attemptService) ListByExam(ctx context.Context, examID string, filters repositories.AttemptFilters, userID string) ([]*models.Attempt, int64, error) {
	caller, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to load caller: %w", err)
	}

	filters.ExamID = &examID
	if !caller.IsAdmin() {
		// Students only ever see their own attempts.
		filters.UserID = &caller.ID
	}

	return s.repo.Attempt().List(ctx, filters)
}

// ===== EVENTS & AUDIT =====

func (s *attemptService) publishAttemptStarted(ctx context.Context, attempt *models.Attempt, exam *models.Exam, deadline time.Time, resumed bool) {
	event := events.NewLifecycleEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID: attempt.ID,
		ExamID:    attempt.ExamID,
		ExamTitle: exam.Title,
		UserID:    attempt.UserID,
		StartedAt: attempt.StartTime,
		Deadline:  deadline,
		Resumed:   resumed,
	})
	if err := s.publisher.PublishLifecycleEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish attempt started event", "attempt_id", attempt.ID)
	}
}

func (s *attemptService) publishAttemptSubmitted(ctx context.Context, attempt *models.Attempt, submitTime time.Time, score, totalMarks, percentage int, passed bool) {
	event := events.NewLifecycleEvent(events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:   attempt.ID,
		ExamID:      attempt.ExamID,
		ExamTitle:   attempt.Exam.Title,
		UserID:      attempt.UserID,
		SubmittedAt: submitTime,
		Score:       score,
		TotalMarks:  totalMarks,
		Percentage:  percentage,
		Passed:      passed,
	})
	if err := s.publisher.PublishLifecycleEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish attempt submitted event", "attempt_id", attempt.ID)
	}
}

func (s *attemptService) auditAttemptCompleted(ctx context.Context, attempt *models.Attempt, score int) {
	details, _ := json.Marshal(map[string]interface{}{
		"exam_id": attempt.ExamID,
		"score":   score,
	})
	entry := &models.AuditLog{
		EventType:  models.AuditAttemptCompleted,
		ActorID:    attempt.UserID,
		TargetType: "attempt",
		TargetID:   &attempt.ID,
		Details:    datatypes.JSON(details),
	}
	if err := s.repo.Audit().Create(ctx, entry); err != nil {
		s.logger.LogError(err, "Failed to write attempt audit entry", "attempt_id", attempt.ID)
	}
}
