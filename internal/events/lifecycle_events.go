package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the lifecycle events the portal emits
type EventType string

const (
	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"

	// Retest / re-attempt events
	EventRetestRequested  EventType = "attempt.retest_requested"
	EventRetestApproved   EventType = "attempt.retest_approved"
	EventRetestDenied     EventType = "attempt.retest_denied"
	EventReattemptGranted EventType = "assignment.reattempt_granted"
)

const (
	eventSource  = "examportal-service"
	eventVersion = "1.0"
)

// LifecycleEvent is the envelope for all published events
type LifecycleEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewLifecycleEvent wraps a payload in the standard envelope
func NewLifecycleEvent(eventType EventType, data interface{}) *LifecycleEvent {
	return &LifecycleEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID string    `json:"attempt_id"`
	ExamID    string    `json:"exam_id"`
	ExamTitle string    `json:"exam_title"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
	Deadline  time.Time `json:"deadline"`
	Resumed   bool      `json:"resumed"`
}

type AttemptSubmittedEvent struct {
	AttemptID   string    `json:"attempt_id"`
	ExamID      string    `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	UserID      string    `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Score       int       `json:"score"`
	TotalMarks  int       `json:"total_marks"`
	Percentage  int       `json:"percentage"`
	Passed      bool      `json:"passed"`
}

// Retest / re-attempt event payloads

type RetestRequestedEvent struct {
	AttemptID string `json:"attempt_id"`
	ExamID    string `json:"exam_id"`
	UserID    string `json:"user_id"`
	Reason    string `json:"reason"`
}

type RetestDecisionEvent struct {
	AttemptID string `json:"attempt_id"`
	ExamID    string `json:"exam_id"`
	UserID    string `json:"user_id"`
	DecidedBy string `json:"decided_by"`
	Remark    string `json:"remark,omitempty"`
}

type ReattemptGrantedEvent struct {
	ExamID    string `json:"exam_id"`
	UserID    string `json:"user_id"`
	NewLimit  int    `json:"new_limit"`
	GrantedBy string `json:"granted_by"`
}
