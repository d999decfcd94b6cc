package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptStarted   AttemptStatus = "STARTED"
	AttemptCompleted AttemptStatus = "COMPLETED"
)

// Attempt is one student's single pass at one exam. At most one STARTED
// attempt may exist per (user, exam); the store enforces this with a partial
// unique index.
type Attempt struct {
	ID     string        `json:"id" gorm:"primaryKey;size:36"`
	ExamID string        `json:"exam_id" gorm:"not null;index;size:36"`
	UserID string        `json:"user_id" gorm:"not null;index;size:36"`
	Status AttemptStatus `json:"status" gorm:"not null;default:STARTED;index"`

	// StartTime is server-assigned and immutable; the attempt deadline is
	// always derived from it, never from a client clock.
	StartTime  time.Time  `json:"start_time" gorm:"not null"`
	SubmitTime *time.Time `json:"submit_time"`

	// Score is nil until the attempt completes.
	Score *int `json:"score"`

	IsRetestRequested bool    `json:"is_retest_requested" gorm:"default:false"`
	RetestReason      *string `json:"retest_reason" gorm:"type:text"`
	AdminRemark       *string `json:"admin_remark" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam    Exam     `json:"exam" gorm:"foreignKey:ExamID"`
	User    User     `json:"user" gorm:"foreignKey:UserID"`
	Answers []Answer `json:"answers" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

// Answer records a single selected option within an attempt. Rows are created
// in bulk at submission time, atomically with the attempt's transition to
// COMPLETED, and never mutated afterwards. Unanswered questions produce no row.
type Answer struct {
	ID               string `json:"id" gorm:"primaryKey;size:36"`
	AttemptID        string `json:"attempt_id" gorm:"not null;index;size:36"`
	QuestionID       string `json:"question_id" gorm:"not null;index;size:36"`
	SelectedOptionID string `json:"selected_option_id" gorm:"not null;size:36"`

	// IsMarked is the student's review flag, not a correctness marker.
	IsMarked bool `json:"is_marked" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (Answer) TableName() string {
	return "answers"
}

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Deadline is the absolute submission cutoff: StartTime plus the exam's
// duration. It is computed once from the immutable start time.
func (a *Attempt) Deadline(exam *Exam) time.Time {
	return a.StartTime.Add(time.Duration(exam.Duration) * time.Minute)
}
