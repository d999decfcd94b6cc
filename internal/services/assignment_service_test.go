package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/eduport/examportal-service/internal/events"
	"github.com/eduport/examportal-service/internal/models"
	"github.com/eduport/examportal-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func newTestAssignmentService(repo *MockRepository) (*assignmentService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(slog.Default())
	svc := &assignmentService{
		repo:      repo,
		publisher: publisher,
		logger:    utils.NewDevelopmentLogger(),
	}
	return svc, publisher
}

func adminUser() *models.User {
	return &models.User{ID: "admin-1", Role: models.RoleAdmin, IsActive: true}
}

func TestAssignmentService_GrantReattempt_RecomputesFromUsage(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAssignmentService(repo)

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(activeExam(), nil)
	repo.attempt.On("CountByUserAndExam", mock.Anything, "student-1", "exam-1").Return(int64(3), nil)
	// 3 used -> override written as 4, whatever the old override said.
	repo.assignment.On("UpsertAllowedAttempts", mock.Anything, "student-1", "exam-1", 4).Return(nil)
	repo.audit.On("Create", mock.Anything, mock.AnythingOfType("*models.AuditLog")).Return(nil)

	result, err := svc.GrantReattempt(context.Background(), "exam-1", "student-1", "admin-1")

	assert.NoError(t, err)
	assert.Equal(t, 4, result.NewLimit)

	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventReattemptGranted, published[0].Type)

	repo.assertExpectations(t)
}

func TestAssignmentService_GrantReattempt_RequiresAdmin(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	repo.user.On("GetByID", mock.Anything, "student-2").
		Return(&models.User{ID: "student-2", Role: models.RoleStudent}, nil)

	_, err := svc.GrantReattempt(context.Background(), "exam-1", "student-1", "student-2")

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)
	repo.assignment.AssertNotCalled(t, "UpsertAllowedAttempts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignmentService_RequestRetest(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAssignmentService(repo)

	attempt := &models.Attempt{
		ID:     "attempt-1",
		ExamID: "exam-1",
		UserID: "student-1",
		Status: models.AttemptCompleted,
	}

	repo.attempt.On("GetByID", mock.Anything, "attempt-1").Return(attempt, nil)
	repo.attempt.On("Update", mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
		return a.IsRetestRequested && a.RetestReason != nil && *a.RetestReason == "network dropped mid-exam"
	})).Return(nil)
	repo.audit.On("Create", mock.Anything, mock.AnythingOfType("*models.AuditLog")).Return(nil)

	err := svc.RequestRetest(context.Background(), "attempt-1", "network dropped mid-exam", "student-1")

	assert.NoError(t, err)
	assert.Len(t, publisher.GetPublishedEvents(), 1)
}

func TestAssignmentService_RequestRetest_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		attempt *models.Attempt
		reason  string
		caller  string
		wantErr error
	}{
		{
			name: "running attempt",
			attempt: &models.Attempt{
				ID: "attempt-1", UserID: "student-1", Status: models.AttemptStarted,
			},
			reason:  "connection dropped",
			caller:  "student-1",
			wantErr: ErrRetestNotCompleted,
		},
		{
			name: "already requested",
			attempt: &models.Attempt{
				ID: "attempt-1", UserID: "student-1",
				Status: models.AttemptCompleted, IsRetestRequested: true,
			},
			reason:  "connection dropped",
			caller:  "student-1",
			wantErr: ErrRetestAlreadyRequested,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc, _ := newTestAssignmentService(repo)

			repo.attempt.On("GetByID", mock.Anything, "attempt-1").Return(tt.attempt, nil)

			err := svc.RequestRetest(context.Background(), "attempt-1", tt.reason, tt.caller)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssignmentService_RequestRetest_EmptyReason(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	err := svc.RequestRetest(context.Background(), "attempt-1", " no ", "student-1")

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	repo.attempt.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAssignmentService_ApproveRetest_DeletesAttempt(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newTestAssignmentService(repo)

	attempt := &models.Attempt{
		ID:                "attempt-1",
		ExamID:            "exam-1",
		UserID:            "student-1",
		Status:            models.AttemptCompleted,
		IsRetestRequested: true,
	}

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.attempt.On("GetByID", mock.Anything, "attempt-1").Return(attempt, nil)
	repo.attempt.On("Delete", mock.Anything, "attempt-1").Return(nil)
	repo.audit.On("Create", mock.Anything, mock.AnythingOfType("*models.AuditLog")).Return(nil)

	err := svc.ApproveRetest(context.Background(), "attempt-1", "admin-1")

	assert.NoError(t, err)
	published := publisher.GetPublishedEvents()
	assert.Len(t, published, 1)
	assert.Equal(t, events.EventRetestApproved, published[0].Type)
	repo.assertExpectations(t)
}

func TestAssignmentService_ApproveRetest_NoPendingRequest(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	attempt := &models.Attempt{
		ID:     "attempt-1",
		Status: models.AttemptCompleted,
	}

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.attempt.On("GetByID", mock.Anything, "attempt-1").Return(attempt, nil)

	err := svc.ApproveRetest(context.Background(), "attempt-1", "admin-1")

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	repo.attempt.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAssignmentService_DenyRetest_DefaultRemark(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	attempt := &models.Attempt{
		ID:                "attempt-1",
		ExamID:            "exam-1",
		UserID:            "student-1",
		Status:            models.AttemptCompleted,
		IsRetestRequested: true,
	}

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.attempt.On("GetByID", mock.Anything, "attempt-1").Return(attempt, nil)
	repo.attempt.On("Update", mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
		return !a.IsRetestRequested && a.AdminRemark != nil && *a.AdminRemark == defaultDenyRemark
	})).Return(nil)
	repo.audit.On("Create", mock.Anything, mock.AnythingOfType("*models.AuditLog")).Return(nil)

	err := svc.DenyRetest(context.Background(), "attempt-1", "", "admin-1")

	assert.NoError(t, err)
	repo.assertExpectations(t)
}

func TestAssignmentService_Assign_SkipsDuplicates(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.exam.On("GetByID", mock.Anything, "exam-1").Return(activeExam(), nil)
	repo.user.On("GetByID", mock.Anything, "student-1").
		Return(&models.User{ID: "student-1", Role: models.RoleStudent}, nil)
	repo.user.On("GetByID", mock.Anything, "student-2").
		Return(&models.User{ID: "student-2", Role: models.RoleStudent}, nil)
	repo.assignment.On("Create", mock.Anything, mock.MatchedBy(func(a *models.ExamAssignment) bool {
		return a.UserID == "student-1"
	})).Return(gorm.ErrDuplicatedKey)
	repo.assignment.On("Create", mock.Anything, mock.MatchedBy(func(a *models.ExamAssignment) bool {
		return a.UserID == "student-2"
	})).Return(nil)

	err := svc.Assign(context.Background(), "exam-1", []string{"student-1", "student-2"}, "admin-1")

	assert.NoError(t, err)
	repo.assertExpectations(t)
}

func TestAssignmentService_Unassign_NotAssigned(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.assignment.On("Delete", mock.Anything, "student-1", "exam-1").Return(gorm.ErrRecordNotFound)

	err := svc.Unassign(context.Background(), "exam-1", "student-1", "admin-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignmentService_AuditTrail(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	entries := []*models.AuditLog{
		{ID: "log-2", EventType: models.AuditRetestApproved, TargetType: "attempt"},
		{ID: "log-1", EventType: models.AuditRetestRequested, TargetType: "attempt"},
	}

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)
	repo.audit.On("ListByTarget", mock.Anything, "attempt", "attempt-1").Return(entries, nil)

	got, err := svc.AuditTrail(context.Background(), "attempt", "attempt-1", "admin-1")

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "log-2", got[0].ID)
}

func TestAssignmentService_AuditTrail_RequiresAdmin(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	repo.user.On("GetByID", mock.Anything, "student-1").
		Return(&models.User{ID: "student-1", Role: models.RoleStudent}, nil)

	_, err := svc.AuditTrail(context.Background(), "attempt", "attempt-1", "student-1")

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)
	repo.audit.AssertNotCalled(t, "ListByTarget", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignmentService_AuditTrail_UnknownTargetType(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newTestAssignmentService(repo)

	repo.user.On("GetByID", mock.Anything, "admin-1").Return(adminUser(), nil)

	_, err := svc.AuditTrail(context.Background(), "user", "user-1", "admin-1")
	assert.True(t, IsValidation(err))
}
