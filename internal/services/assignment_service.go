package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eduport/examportal-service/internal/events"
	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

const defaultDenyRemark = "Retest Request Denied."

type assignmentService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewAssignmentService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger utils.Logger,
) AssignmentService {
	return &assignmentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// requireAdmin loads the actor and rejects non-admin callers.
func (s *assignmentService) requireAdmin(ctx context.Context, actorID, resourceID, resource, action string) (*models.User, error) {
	actor, err := s.repo.User().GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if !actor.IsAdmin() {
		return nil, NewPermissionError(actorID, resourceID, resource, action, "admin role required")
	}
	return actor, nil
}

// ===== ASSIGNMENT MANAGEMENT =====

func (s *assignmentService) Assign(ctx context.Context, examID string, userIDs []string, actorID string) error {
	if _, err := s.requireAdmin(ctx, actorID, examID, "exam", "assign"); err != nil {
		return err
	}

	if _, err := s.repo.Exam().GetByID(ctx, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to load exam: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := s.repo.User().GetByID(ctx, userID); err != nil {
			if repositories.IsNotFoundError(err) {
				return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
			}
			return fmt.Errorf("failed to load user %s: %w", userID, err)
		}

		err := s.repo.Assignment().Create(ctx, &models.ExamAssignment{
			ExamID: examID,
			UserID: userID,
		})
		if err != nil && !repositories.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to assign user %s: %w", userID, err)
		}
	}

	s.logger.Info("Students assigned to exam",
		"exam_id", examID,
		"count", len(userIDs),
		"actor_id", actorID)

	return nil
}

func (s *assignmentService) Unassign(ctx context.Context, examID, userID, actorID string) error {
	if _, err := s.requireAdmin(ctx, actorID, examID, "exam", "unassign"); err != nil {
		return err
	}

	if err := s.repo.Assignment().Delete(ctx, userID, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to remove assignment: %w", err)
	}

	s.logger.Info("Student unassigned from exam",
		"exam_id", examID,
		"user_id", userID,
		"actor_id", actorID)

	return nil
}

func (s *assignmentService) ListByExam(ctx context.Context, examID, actorID string) ([]*models.ExamAssignment, error) {
	if _, err := s.requireAdmin(ctx, actorID, examID, "exam", "list_assignments"); err != nil {
		return nil, err
	}
	return s.repo.Assignment().ListByExam(ctx, examID)
}

// ===== ROSTER IMPORT =====

// ImportRoster bulk-assigns students from an xlsx sheet. The first column of
// each data row carries the student email; the header row is skipped. Rows
// for unknown emails are reported, not fatal.
func (s *assignmentService) ImportRoster(ctx context.Context, examID string, file io.Reader, actorID string) (*RosterImportResult, error) {
	actor, err := s.requireAdmin(ctx, actorID, examID, "exam", "import_roster")
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Exam().GetByID(ctx, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, NewValidationError("file", "not a valid xlsx file", nil)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "xlsx file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "roster must have a header row and at least one data row", len(rows))
	}

	result := &RosterImportResult{TotalRows: len(rows) - 1}

	for rowIndex, row := range rows[1:] {
		rowNum := rowIndex + 2
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			result.SkippedCount++
			result.Errors = append(result.Errors, RosterRowError{
				Row:     rowNum,
				Message: "empty email cell",
			})
			continue
		}

		email := strings.ToLower(strings.TrimSpace(row[0]))
		user, err := s.repo.User().GetByEmail(ctx, email)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				result.SkippedCount++
				result.Errors = append(result.Errors, RosterRowError{
					Row:     rowNum,
					Email:   email,
					Message: "no registered student with this email",
				})
				continue
			}
			return nil, fmt.Errorf("failed to look up student %s: %w", email, err)
		}

		err = s.repo.Assignment().Create(ctx, &models.ExamAssignment{
			ExamID: examID,
			UserID: user.ID,
		})
		if err != nil {
			if repositories.IsDuplicateKeyError(err) {
				result.SkippedCount++
				result.Errors = append(result.Errors, RosterRowError{
					Row:     rowNum,
					Email:   email,
					Message: "already assigned",
				})
				continue
			}
			return nil, fmt.Errorf("failed to assign student %s: %w", email, err)
		}
		result.CreatedCount++
	}

	s.audit(ctx, models.AuditRosterImported, actor.ID, "exam", &examID, map[string]interface{}{
		"total_rows": result.TotalRows,
		"created":    result.CreatedCount,
		"skipped":    result.SkippedCount,
	})

	s.logger.Info("Roster import completed",
		"exam_id", examID,
		"total_rows", result.TotalRows,
		"created_count", result.CreatedCount,
		"skipped_count", result.SkippedCount)

	return result, nil
}

// ===== RE-ATTEMPT GRANTS =====

// GrantReattempt sets the per-assignment override to one more than the
// attempts the student has already used, opening exactly one fresh slot
// regardless of what the previous limit was.
func (s *assignmentService) GrantReattempt(ctx context.Context, examID, userID, actorID string) (*GrantResult, error) {
	actor, err := s.requireAdmin(ctx, actorID, examID, "exam", "grant_reattempt")
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Exam().GetByID(ctx, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}

	used, err := s.repo.Attempt().CountByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	newLimit := GrantLimit(int(used))
	if err := s.repo.Assignment().UpsertAllowedAttempts(ctx, userID, examID, newLimit); err != nil {
		return nil, fmt.Errorf("failed to write attempt override: %w", err)
	}

	s.audit(ctx, models.AuditReattemptGranted, actor.ID, "assignment", &examID, map[string]interface{}{
		"user_id":   userID,
		"new_limit": newLimit,
	})

	event := events.NewLifecycleEvent(events.EventReattemptGranted, events.ReattemptGrantedEvent{
		ExamID:    examID,
		UserID:    userID,
		NewLimit:  newLimit,
		GrantedBy: actor.ID,
	})
	if err := s.publisher.PublishLifecycleEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish reattempt granted event",
			"exam_id", examID, "user_id", userID)
	}

	s.logger.Info("Re-attempt granted",
		"exam_id", examID,
		"user_id", userID,
		"new_limit", newLimit,
		"actor_id", actorID)

	return &GrantResult{ExamID: examID, UserID: userID, NewLimit: newLimit}, nil
}

// ===== RETEST WORKFLOW =====

func (s *assignmentService) RequestRetest(ctx context.Context, attemptID, reason, userID string) error {
	if len(strings.TrimSpace(reason)) < 5 {
		return NewValidationError("reason", "reason must be at least 5 characters", reason)
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidAttempt
		}
		return fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.UserID != userID {
		return NewPermissionError(userID, attemptID, "attempt", "request_retest", "not owned by student")
	}
	if attempt.Status != models.AttemptCompleted {
		return ErrRetestNotCompleted
	}
	if attempt.IsRetestRequested {
		return ErrRetestAlreadyRequested
	}

	attempt.IsRetestRequested = true
	attempt.RetestReason = &reason
	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record retest request: %w", err)
	}

	s.audit(ctx, models.AuditRetestRequested, userID, "attempt", &attemptID, map[string]interface{}{
		"exam_id": attempt.ExamID,
		"reason":  reason,
	})

	event := events.NewLifecycleEvent(events.EventRetestRequested, events.RetestRequestedEvent{
		AttemptID: attemptID,
		ExamID:    attempt.ExamID,
		UserID:    userID,
		Reason:    reason,
	})
	if err := s.publisher.PublishLifecycleEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish retest requested event", "attempt_id", attemptID)
	}

	s.logger.Info("Retest requested",
		"attempt_id", attemptID,
		"exam_id", attempt.ExamID,
		"user_id", userID)

	return nil
}

// ApproveRetest deletes the attempt and its answers. The slot it consumed is
// freed, so the student can re-enter under their existing limit without an
// override.
func (s *assignmentService) ApproveRetest(ctx context.Context, attemptID, actorID string) error {
	actor, err := s.requireAdmin(ctx, actorID, attemptID, "attempt", "approve_retest")
	if err != nil {
		return err
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidAttempt
		}
		return fmt.Errorf("failed to load attempt: %w", err)
	}
	if !attempt.IsRetestRequested {
		return NewValidationError("attempt_id", "no retest requested for this attempt", attemptID)
	}

	if err := s.repo.Attempt().Delete(ctx, attemptID); err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}

	s.audit(ctx, models.AuditRetestApproved, actor.ID, "attempt", &attemptID, map[string]interface{}{
		"exam_id": attempt.ExamID,
		"user_id": attempt.UserID,
	})

	event := events.NewLifecycleEvent(events.EventRetestApproved, events.RetestDecisionEvent{
		AttemptID: attemptID,
		ExamID:    attempt.ExamID,
		UserID:    attempt.UserID,
		DecidedBy: actor.ID,
	})
	if err := s.publisher.PublishLifecycleEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish retest approved event", "attempt_id", attemptID)
	}

	s.logger.Info("Retest approved",
		"attempt_id", attemptID,
		"exam_id", attempt.ExamID,
		"user_id", attempt.UserID,
		"actor_id", actorID)

	return nil
}

func (s *assignmentService) DenyRetest(ctx context.Context, attemptID, remark, actorID string) error {
	actor, err := s.requireAdmin(ctx, actorID, attemptID, "attempt", "deny_retest")
	if err != nil {
		return err
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidAttempt
		}
		return fmt.Errorf("failed to load attempt: %w", err)
	}
	if !attempt.IsRetestRequested {
		return NewValidationError("attempt_id", "no retest requested for this attempt", attemptID)
	}

	if strings.TrimSpace(remark) == "" {
		remark = defaultDenyRemark
	}

	attempt.IsRetestRequested = false
	attempt.AdminRemark = &remark
	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return fmt.Errorf("failed to record retest denial: %w", err)
	}

	s.audit(ctx, models.AuditRetestDenied, actor.ID, "attempt", &attemptID, map[string]interface{}{
		"exam_id": attempt.ExamID,
		"user_id": attempt.UserID,
		"remark":  remark,
	})

	event := events.NewLifecycleEvent(events.EventRetestDenied, events.RetestDecisionEvent{
		AttemptID: attemptID,
		ExamID:    attempt.ExamID,
		UserID:    attempt.UserID,
		DecidedBy: actor.ID,
		Remark:    remark,
	})
	if err := s.publisher.PublishLifecycleEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish retest denied event", "attempt_id", attemptID)
	}

	s.logger.Info("Retest denied",
		"attempt_id", attemptID,
		"actor_id", actorID)

	return nil
}

func (s *assignmentService) ListRetestRequests(ctx context.Context, actorID string) ([]*models.Attempt, error) {
	if _, err := s.requireAdmin(ctx, actorID, "", "attempt", "list_retest_requests"); err != nil {
		return nil, err
	}
	return s.repo.Attempt().ListRetestRequested(ctx)
}

// ===== AUDIT =====

// auditTargetTypes are the target kinds audit entries are recorded against.
var auditTargetTypes = map[string]bool{
	"exam":       true,
	"attempt":    true,
	"assignment": true,
}

func (s *assignmentService) AuditTrail(ctx context.Context, targetType, targetID, actorID string) ([]*models.AuditLog, error) {
	if _, err := s.requireAdmin(ctx, actorID, targetID, targetType, "audit_trail"); err != nil {
		return nil, err
	}

	if !auditTargetTypes[targetType] {
		return nil, NewValidationError("target_type", "must be one of exam, attempt, assignment", targetType)
	}
	if targetID == "" {
		return nil, NewValidationError("target_id", "is required", nil)
	}

	return s.repo.Audit().ListByTarget(ctx, targetType, targetID)
}

func (s *assignmentService) audit(ctx context.Context, eventType models.AuditEventType, actorID, targetType string, targetID *string, details map[string]interface{}) {
	raw, _ := json.Marshal(details)
	entry := &models.AuditLog{
		EventType:  eventType,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    datatypes.JSON(raw),
	}
	if err := s.repo.Audit().Create(ctx, entry); err != nil {
		s.logger.LogError(err, "Failed to write audit entry", "event_type", string(eventType))
	}
}
