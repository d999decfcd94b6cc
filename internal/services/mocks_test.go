package services

import (
	"context"
	"time"

	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockExamRepository is a mock implementation of ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) GetByID(ctx context.Context, id string) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) CountQuestions(ctx context.Context, examID string) (int64, error) {
	args := m.Called(ctx, examID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAssignmentRepository is a mock implementation of AssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Create(ctx context.Context, assignment *models.ExamAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) GetByUserAndExam(ctx context.Context, userID, examID string) (*models.ExamAssignment, error) {
	args := m.Called(ctx, userID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExamAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) Delete(ctx context.Context, userID, examID string) error {
	args := m.Called(ctx, userID, examID)
	return args.Error(0)
}

func (m *MockAssignmentRepository) ListByExam(ctx context.Context, examID string) ([]*models.ExamAssignment, error) {
	args := m.Called(ctx, examID)
	return args.Get(0).([]*models.ExamAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) UpsertAllowedAttempts(ctx context.Context, userID, examID string, allowed int) error {
	args := m.Called(ctx, userID, examID, allowed)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithExam(ctx context.Context, id string) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) Update(ctx context.Context, attempt *models.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetStarted(ctx context.Context, userID, examID string) (*models.Attempt, error) {
	args := m.Called(ctx, userID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetLatestCompleted(ctx context.Context, userID, examID string) (*models.Attempt, error) {
	args := m.Called(ctx, userID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) CountByUserAndExam(ctx context.Context, userID, examID string) (int64, error) {
	args := m.Called(ctx, userID, examID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) Complete(ctx context.Context, id string, submitTime time.Time, score int) (bool, error) {
	args := m.Called(ctx, id, submitTime, score)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) ListRetestRequested(ctx context.Context) ([]*models.Attempt, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Attempt), args.Error(1)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) CreateBatch(ctx context.Context, answers []*models.Answer) error {
	args := m.Called(ctx, answers)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetByAttempt(ctx context.Context, attemptID string) ([]*models.Answer, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).([]*models.Answer), args.Error(1)
}

func (m *MockAnswerRepository) CountByAttempt(ctx context.Context, attemptID string) (int64, error) {
	args := m.Called(ctx, attemptID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListByTarget(ctx context.Context, targetType, targetID string) ([]*models.AuditLog, error) {
	args := m.Called(ctx, targetType, targetID)
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

// MockRepository aggregates the entity mocks. WithTx runs the callback
// against the same mock set, which is enough to exercise transactional
// service paths.
type MockRepository struct {
	exam       *MockExamRepository
	assignment *MockAssignmentRepository
	attempt    *MockAttemptRepository
	answer     *MockAnswerRepository
	user       *MockUserRepository
	audit      *MockAuditRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		exam:       &MockExamRepository{},
		assignment: &MockAssignmentRepository{},
		attempt:    &MockAttemptRepository{},
		answer:     &MockAnswerRepository{},
		user:       &MockUserRepository{},
		audit:      &MockAuditRepository{},
	}
}

func (m *MockRepository) Exam() repositories.ExamRepository             { return m.exam }
func (m *MockRepository) Assignment() repositories.AssignmentRepository { return m.assignment }
func (m *MockRepository) Attempt() repositories.AttemptRepository       { return m.attempt }
func (m *MockRepository) Answer() repositories.AnswerRepository         { return m.answer }
func (m *MockRepository) User() repositories.UserRepository             { return m.user }
func (m *MockRepository) Audit() repositories.AuditRepository           { return m.audit }

func (m *MockRepository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) assertExpectations(t mock.TestingT) {
	m.exam.AssertExpectations(t)
	m.assignment.AssertExpectations(t)
	m.attempt.AssertExpectations(t)
	m.answer.AssertExpectations(t)
	m.user.AssertExpectations(t)
	m.audit.AssertExpectations(t)
}

func stringPtr(s string) *string { return &s }
func intPtr(i int) *int          { return &i }
