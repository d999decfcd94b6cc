package services

import (
	"context"
	"io"
	"time"

	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
)

// ===== ATTEMPT STATE MACHINE =====

// AttemptService owns the lifecycle of a student's attempt at an exam:
// admission, deadline derivation, submission and scoring.
type AttemptService interface {
	// Admit starts a new attempt or returns the caller's STARTED attempt for
	// resumption. Re-entering the exam never creates a second attempt or
	// resets the timer.
	Admit(ctx context.Context, examID, userID string) (*AdmissionResult, error)

	// Submit finalizes an attempt exactly once. Resubmitting a COMPLETED
	// attempt is not an error; the original outcome is returned unchanged.
	Submit(ctx context.Context, req *SubmitRequest, userID string) (*SubmissionResult, error)

	// PlayView returns the running attempt with its question snapshot,
	// options stripped of correctness, and the absolute deadline.
	PlayView(ctx context.Context, examID, userID string) (*PlayViewResponse, error)

	TimeRemaining(ctx context.Context, attemptID, userID string) (int, error)
	GetByID(ctx context.Context, attemptID, userID string) (*models.Attempt, error)
	ListByExam(ctx context.Context, examID string, filters repositories.AttemptFilters, userID string) ([]*models.Attempt, int64, error)
}

type AdmissionResult struct {
	Attempt        *models.Attempt `json:"attempt"`
	Resumed        bool            `json:"resumed"`
	Deadline       time.Time       `json:"deadline"`
	RedirectTarget string          `json:"redirect_target"`
}

type SubmitRequest struct {
	AttemptID string            `json:"attempt_id" validate:"required"`
	Answers   map[string]string `json:"answers"`
	MarkedIDs []string          `json:"marked_ids"`
}

type SubmissionResult struct {
	AttemptID        string `json:"attempt_id"`
	Score            int    `json:"score"`
	TotalMarks       int    `json:"total_marks"`
	Percentage       int    `json:"percentage"`
	Passed           bool   `json:"passed"`
	AlreadySubmitted bool   `json:"already_submitted"`
	RedirectTarget   string `json:"redirect_target"`
}

type PlayViewResponse struct {
	AttemptID string         `json:"attempt_id"`
	ExamID    string         `json:"exam_id"`
	Title     string         `json:"title"`
	Duration  int            `json:"duration"`
	Deadline  time.Time      `json:"deadline"`
	Questions []PlayQuestion `json:"questions"`
}

// PlayQuestion is the client-facing question shape: option correctness is
// never sent to the session client.
type PlayQuestion struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Marks   int          `json:"marks"`
	Options []PlayOption `json:"options"`
}

type PlayOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ===== ASSIGNMENT / RETEST =====

// AssignmentService manages who may attempt an exam and how often, including
// admin re-attempt grants and the retest workflow.
type AssignmentService interface {
	Assign(ctx context.Context, examID string, userIDs []string, actorID string) error
	Unassign(ctx context.Context, examID, userID, actorID string) error
	ListByExam(ctx context.Context, examID, actorID string) ([]*models.ExamAssignment, error)

	// ImportRoster bulk-assigns students from an xlsx roster of emails.
	ImportRoster(ctx context.Context, examID string, file io.Reader, actorID string) (*RosterImportResult, error)

	// GrantReattempt sets the assignment override to one more than the
	// attempts the student has already used.
	GrantReattempt(ctx context.Context, examID, userID, actorID string) (*GrantResult, error)

	RequestRetest(ctx context.Context, attemptID, reason, userID string) error
	ApproveRetest(ctx context.Context, attemptID, actorID string) error
	DenyRetest(ctx context.Context, attemptID, remark, actorID string) error
	ListRetestRequests(ctx context.Context, actorID string) ([]*models.Attempt, error)

	// AuditTrail lists the audit entries recorded against one target, newest
	// first. Admin only.
	AuditTrail(ctx context.Context, targetType, targetID, actorID string) ([]*models.AuditLog, error)
}

type GrantResult struct {
	ExamID   string `json:"exam_id"`
	UserID   string `json:"user_id"`
	NewLimit int    `json:"new_limit"`
}

type RosterImportResult struct {
	TotalRows    int              `json:"total_rows"`
	CreatedCount int              `json:"created_count"`
	SkippedCount int              `json:"skipped_count"`
	Errors       []RosterRowError `json:"errors"`
}

type RosterRowError struct {
	Row     int    `json:"row"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ===== RESULTS =====

// ResultService applies the publication gate and derives pass/fail for a
// completed attempt.
type ResultService interface {
	GetResult(ctx context.Context, attemptID, callerID string) (*ResultResponse, error)

	// GetLatestResult resolves the caller's most recent COMPLETED attempt on
	// the exam and returns its gated result.
	GetLatestResult(ctx context.Context, examID, callerID string) (*ResultResponse, error)
}

type ResultResponse struct {
	AttemptID  string     `json:"attempt_id"`
	ExamID     string     `json:"exam_id"`
	ExamTitle  string     `json:"exam_title"`
	Published  bool       `json:"published"`
	ResultDate *time.Time `json:"result_date,omitempty"`

	// QuestionsAnswered is visible even before publication; it reveals
	// nothing about correctness.
	QuestionsAnswered int `json:"questions_answered"`

	// Score fields are zero-valued until the result is published.
	Score      int        `json:"score,omitempty"`
	TotalMarks int        `json:"total_marks,omitempty"`
	Percentage int        `json:"percentage,omitempty"`
	Passed     bool       `json:"passed,omitempty"`
	SubmitTime *time.Time `json:"submit_time,omitempty"`

	// Answers is the per-question review, present only once the result is
	// published (or for admins).
	Answers []AnswerReview `json:"answers,omitempty"`

	IsRetestRequested bool    `json:"is_retest_requested"`
	AdminRemark       *string `json:"admin_remark,omitempty"`
}

// AnswerReview pairs a stored answer with the current question content and
// whether the selected option is correct.
type AnswerReview struct {
	QuestionID         string `json:"question_id"`
	QuestionText       string `json:"question_text"`
	Marks              int    `json:"marks"`
	SelectedOptionID   string `json:"selected_option_id"`
	SelectedOptionText string `json:"selected_option_text"`
	Correct            bool   `json:"correct"`
	IsMarked           bool   `json:"is_marked"`
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Attempt() AttemptService
	Assignment() AssignmentService
	Result() ResultService
}
