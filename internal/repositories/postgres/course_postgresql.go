package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lumenlearn/assessment-engine/internal/cache"
	"github.com/lumenlearn/assessment-engine/internal/models"
	"github.com/lumenlearn/assessment-engine/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CoursePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	inTx         bool
}

func NewCoursePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// newCoursePostgreSQLTx binds the repository to an open transaction;
// transactional reads bypass the cache.
func newCoursePostgreSQLTx(tx *gorm.DB, redisClient *redis.Client) repositories.CourseRepository {
	return &CoursePostgreSQL{
		db:           tx,
		cacheManager: cache.NewCacheManager(redisClient),
		inTx:         true,
	}
}

// GetByID retrieves a course with caching
func (c *CoursePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Course, error) {
	db := c.getDB(tx)

	if tx != nil || c.inTx {
		return c.fetchByID(ctx, db, id)
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var course models.Course

	err := c.cacheManager.Course.CacheOrExecute(ctx, cacheKey, &course, cache.CourseCacheConfig.TTL, func() (interface{}, error) {
		return c.fetchByID(ctx, db, id)
	})
	if err != nil {
		return nil, err
	}

	return &course, nil
}

func (c *CoursePostgreSQL) fetchByID(ctx context.Context, db *gorm.DB, id uint) (*models.Course, error) {
	var course models.Course
	if err := db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course not found with ID %d", id)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &course, nil
}

// IncrementCompletedLearners bumps the counter atomically in SQL so
// concurrent cascades cannot lose increments.
func (c *CoursePostgreSQL) IncrementCompletedLearners(ctx context.Context, tx *gorm.DB, id uint) error {
	db := c.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Course{}).
		Where("id = ?", id).
		Update("completed_learners", gorm.Expr("completed_learners + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment completed learners: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("course not found with ID %d", id)
	}

	cache.InvalidateCourseCache(ctx, c.cacheManager, id)

	return nil
}

func (c *CoursePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return c.db
}

type ModulePostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
	inTx         bool
}

func NewModulePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// newModulePostgreSQLTx binds the repository to an open transaction;
// transactional reads bypass the cache.
func newModulePostgreSQLTx(tx *gorm.DB, redisClient *redis.Client) repositories.ModuleRepository {
	return &ModulePostgreSQL{
		db:           tx,
		cacheManager: cache.NewCacheManager(redisClient),
		inTx:         true,
	}
}

// GetByID retrieves a course module with caching
func (m *ModulePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.CourseModule, error) {
	db := m.getDB(tx)

	if tx != nil || m.inTx {
		return m.fetchByID(ctx, db, id)
	}

	cacheKey := fmt.Sprintf("id:%d", id)
	var module models.CourseModule

	err := m.cacheManager.Module.CacheOrExecute(ctx, cacheKey, &module, cache.ModuleCacheConfig.TTL, func() (interface{}, error) {
		return m.fetchByID(ctx, db, id)
	})
	if err != nil {
		return nil, err
	}

	return &module, nil
}

func (m *ModulePostgreSQL) fetchByID(ctx context.Context, db *gorm.DB, id uint) (*models.CourseModule, error) {
	var module models.CourseModule
	if err := db.WithContext(ctx).First(&module, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("module not found with ID %d", id)
		}
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	return &module, nil
}

// ListByCourse lists a course's modules in path order
func (m *ModulePostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseModule, error) {
	db := m.getDB(tx)
	var modules []*models.CourseModule
	if err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("module_order ASC").
		Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("failed to list course modules: %w", err)
	}
	return modules, nil
}

func (m *ModulePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}
