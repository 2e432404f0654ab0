package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repository aggregates all entity repositories behind one handle so services
// can run multi-entity operations through a single transaction boundary.
type Repository interface {
	// Question bank domain
	Question() QuestionRepository

	// Quiz domain
	Quiz() QuizRepository
	Response() ResponseRepository

	// Progress domain
	Progress() ProgressRepository
	Course() CourseRepository
	Module() ModuleRepository

	// Account domain (read-mostly for this service)
	Account() AccountRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// IsNotFoundError reports whether err represents a missing row, either as the
// raw gorm error or wrapped by a repository with a "not found" message.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	return strings.Contains(err.Error(), "not found")
}
