package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExamAssignment is the sole admission gate: a student with no assignment row
// can never start an attempt on the exam.
type ExamAssignment struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"not null;size:36;uniqueIndex:uniq_assignment_user_exam"`
	ExamID string `json:"exam_id" gorm:"not null;size:36;uniqueIndex:uniq_assignment_user_exam"`

	// AllowedAttempts overrides Exam.MaxAttempts when set. Nil means "use the
	// exam default". Admin re-attempt grants write here.
	AllowedAttempts *int `json:"allowed_attempts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam Exam `json:"exam" gorm:"foreignKey:ExamID"`
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (ExamAssignment) TableName() string {
	return "exam_assignments"
}

func (a *ExamAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
