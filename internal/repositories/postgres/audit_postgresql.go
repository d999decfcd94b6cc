package postgres

import (
	"context"

	"github.com/eduport/examportal-service/internal/models"
	"gorm.io/gorm"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func (a *AuditPostgreSQL) Create(ctx context.Context, entry *models.AuditLog) error {
	return a.db.WithContext(ctx).Create(entry).Error
}

func (a *AuditPostgreSQL) ListByTarget(ctx context.Context, targetType, targetID string) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	if err := a.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
