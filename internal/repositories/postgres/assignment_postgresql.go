package postgres

import (
	"context"

	"github.com/eduport/examportal-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentPostgreSQL struct {
	db *gorm.DB
}

func (a *AssignmentPostgreSQL) Create(ctx context.Context, assignment *models.ExamAssignment) error {
	return a.db.WithContext(ctx).Create(assignment).Error
}

func (a *AssignmentPostgreSQL) GetByUserAndExam(ctx context.Context, userID, examID string) (*models.ExamAssignment, error) {
	var assignment models.ExamAssignment
	if err := a.db.WithContext(ctx).
		Preload("Exam").
		Where("user_id = ? AND exam_id = ?", userID, examID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (a *AssignmentPostgreSQL) Delete(ctx context.Context, userID, examID string) error {
	return a.db.WithContext(ctx).
		Where("user_id = ? AND exam_id = ?", userID, examID).
		Delete(&models.ExamAssignment{}).Error
}

func (a *AssignmentPostgreSQL) ListByExam(ctx context.Context, examID string) ([]*models.ExamAssignment, error) {
	var assignments []*models.ExamAssignment
	if err := a.db.WithContext(ctx).
		Preload("User").
		Where("exam_id = ?", examID).
		Order("created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (a *AssignmentPostgreSQL) UpsertAllowedAttempts(ctx context.Context, userID, examID string, allowed int) error {
	assignment := models.ExamAssignment{
		UserID:          userID,
		ExamID:          examID,
		AllowedAttempts: &allowed,
	}
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "exam_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"allowed_attempts", "updated_at"}),
		}).
		Create(&assignment).Error
}
