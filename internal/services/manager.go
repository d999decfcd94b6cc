package services

import (
	"github.com/eduport/examportal-service/internal/cache"
	"github.com/eduport/examportal-service/internal/events"
	"github.com/eduport/examportal-service/internal/repositories"
	"github.com/eduport/examportal-service/internal/utils"
)

type serviceManager struct {
	attempt    AttemptService
	assignment AssignmentService
	result     ResultService
}

// NewServiceManager constructs all services over one repository handle, one
// cache and one event publisher.
func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger utils.Logger,
	validator *utils.Validator,
) ServiceManager {
	return &serviceManager{
		attempt:    NewAttemptService(repo, cacheService, publisher, logger, validator),
		assignment: NewAssignmentService(repo, publisher, logger),
		result:     NewResultService(repo, logger),
	}
}

func (m *serviceManager) Attempt() AttemptService       { return m.attempt }
func (m *serviceManager) Assignment() AssignmentService { return m.assignment }
func (m *serviceManager) Result() ResultService         { return m.result }
