package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Exam struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`

	// Duration is the attempt time box in minutes.
	Duration          int  `json:"duration" gorm:"not null" validate:"required,min=1,max=600"`
	PassingPercentage int  `json:"passing_percentage" gorm:"not null" validate:"min=0,max=100"`
	IsActive          bool `json:"is_active" gorm:"default:false;index"`

	RandomizeQuestions bool `json:"randomize_questions" gorm:"default:false"`

	// MaxAttempts is the default attempt cap; per-assignment overrides win.
	MaxAttempts int `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`

	// Admission window. Nil means unbounded on that side.
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// Publication gate: results are visible once PublishResults is set manually
	// or ResultDate has passed.
	ResultDate     *time.Time `json:"result_date"`
	PublishResults bool       `json:"publish_results" gorm:"default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`
}

type Question struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	ExamID string `json:"exam_id" gorm:"not null;index;size:36"`
	Text   string `json:"text" gorm:"not null;type:text" validate:"required,min=1"`
	Marks  int    `json:"marks" gorm:"not null;default:1" validate:"required,min=1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Options []Option `json:"options" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

type Option struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	QuestionID string `json:"question_id" gorm:"not null;index;size:36"`
	Text       string `json:"text" gorm:"not null;type:text" validate:"required,min=1"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
}

func (Exam) TableName() string {
	return "exams"
}

func (Question) TableName() string {
	return "questions"
}

func (Option) TableName() string {
	return "options"
}

func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// AdmissionOpen reports whether the exam accepts new attempts at the given
// instant. Nil window edges are unbounded.
func (e *Exam) AdmissionOpen(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	if e.StartDate != nil && now.Before(*e.StartDate) {
		return false
	}
	if e.EndDate != nil && now.After(*e.EndDate) {
		return false
	}
	return true
}

// ResultsPublished reports whether completed attempts on this exam are visible
// to their owners: either the manual flag is set or the scheduled result date
// has passed.
func (e *Exam) ResultsPublished(now time.Time) bool {
	if e.PublishResults {
		return true
	}
	return e.ResultDate != nil && !e.ResultDate.After(now)
}
