package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/eduport/examportal-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates per-entity repositories behind a single handle.
// WithTx yields a Repository bound to one database transaction; every call
// made through it commits or rolls back as a unit.
type Repository interface {
	Exam() ExamRepository
	Assignment() AssignmentRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	User() UserRepository
	Audit() AuditRepository

	WithTx(ctx context.Context, fn func(Repository) error) error
}

type ExamRepository interface {
	GetByID(ctx context.Context, id string) (*models.Exam, error)
	// GetByIDWithQuestions loads the exam with questions and options, the
	// snapshot both the play view and the scoring pass work from.
	GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error)
	CountQuestions(ctx context.Context, examID string) (int64, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.ExamAssignment) error
	GetByUserAndExam(ctx context.Context, userID, examID string) (*models.ExamAssignment, error)
	Delete(ctx context.Context, userID, examID string) error
	ListByExam(ctx context.Context, examID string) ([]*models.ExamAssignment, error)

	// UpsertAllowedAttempts writes the per-assignment attempt override,
	// creating the assignment row when the student had none.
	UpsertAllowedAttempts(ctx context.Context, userID, examID string, allowed int) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id string) (*models.Attempt, error)
	// GetByIDWithExam preloads the exam, its questions and their options.
	GetByIDWithExam(ctx context.Context, id string) (*models.Attempt, error)
	Update(ctx context.Context, attempt *models.Attempt) error
	Delete(ctx context.Context, id string) error

	// GetStarted returns the caller's STARTED attempt for the exam, or nil
	// when there is none.
	GetStarted(ctx context.Context, userID, examID string) (*models.Attempt, error)
	GetLatestCompleted(ctx context.Context, userID, examID string) (*models.Attempt, error)
	CountByUserAndExam(ctx context.Context, userID, examID string) (int64, error)

	// Complete transitions a STARTED attempt to COMPLETED with its submit
	// time and score. Returns false when no row transitioned, i.e. a
	// concurrent submission already finalized the attempt.
	Complete(ctx context.Context, id string, submitTime time.Time, score int) (bool, error)

	List(ctx context.Context, filters AttemptFilters) ([]*models.Attempt, int64, error)
	ListRetestRequested(ctx context.Context) ([]*models.Attempt, error)
}

type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.Answer) error
	GetByAttempt(ctx context.Context, attemptID string) ([]*models.Answer, error)
	CountByAttempt(ctx context.Context, attemptID string) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]*models.AuditLog, error)
}

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	ExamID    *string               `json:"exam_id"`
	UserID    *string               `json:"user_id"`
	Status    *models.AttemptStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "created_at", "submit_time", "score"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== ERROR CLASSIFIERS =====

// IsNotFoundError reports whether err is the store's record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// The admission path relies on this to detect a concurrently created STARTED
// attempt and fall back to resumption.
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
