package postgres

import (
	"context"

	"github.com/eduport/examportal-service/internal/models"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func (a *AnswerPostgreSQL) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	return a.db.WithContext(ctx).CreateInBatches(answers, 100).Error
}

func (a *AnswerPostgreSQL) GetByAttempt(ctx context.Context, attemptID string) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := a.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) CountByAttempt(ctx context.Context, attemptID string) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}
