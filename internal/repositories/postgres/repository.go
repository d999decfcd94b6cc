package postgres

import (
	"context"

	"github.com/eduport/examportal-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository creates the GORM-backed repository aggregate.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{db: db}
}

func (r *repository) Exam() repositories.ExamRepository {
	return &ExamPostgreSQL{db: r.db}
}

func (r *repository) Assignment() repositories.AssignmentRepository {
	return &AssignmentPostgreSQL{db: r.db}
}

func (r *repository) Attempt() repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: r.db}
}

func (r *repository) Answer() repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: r.db}
}

func (r *repository) User() repositories.UserRepository {
	return &UserPostgreSQL{db: r.db}
}

func (r *repository) Audit() repositories.AuditRepository {
	return &AuditPostgreSQL{db: r.db}
}

func (r *repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}
