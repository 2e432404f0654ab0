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

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager

	// inTx marks a repository bound to an open transaction. Transactional
	// reads must bypass the cache so ledger math never starts from a row
	// another reader repopulated before commit.
	inTx bool
}

func NewProgressPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// newProgressPostgreSQLTx binds the repository to an open transaction.
// Reads go to the transaction; writes still invalidate the cache.
func newProgressPostgreSQLTx(tx *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           tx,
		cacheManager: cache.NewCacheManager(redisClient),
		inTx:         true,
	}
}

// Create inserts a new progress ledger row
func (p *ProgressPostgreSQL) Create(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(progress).Error; err != nil {
		return fmt.Errorf("failed to create course progress: %w", err)
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, progress.UserID, progress.CourseID)

	return nil
}

// GetByUserAndCourse retrieves the ledger row for a (user, course) pair.
// Reads inside a transaction bypass the cache so ledger math always sees the
// transactional row, whether the transaction arrives as the tx parameter or
// as a tx-bound repository.
func (p *ProgressPostgreSQL) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error) {
	db := p.getDB(tx)

	if tx != nil || p.inTx {
		return p.fetchByUserAndCourse(ctx, db, userID, courseID)
	}

	cacheKey := fmt.Sprintf("user:%s:course:%d", userID, courseID)
	var progress models.CourseProgress

	err := p.cacheManager.Progress.CacheOrExecute(ctx, cacheKey, &progress, cache.ProgressCacheConfig.TTL, func() (interface{}, error) {
		return p.fetchByUserAndCourse(ctx, db, userID, courseID)
	})
	if err != nil {
		return nil, err
	}

	return &progress, nil
}

func (p *ProgressPostgreSQL) fetchByUserAndCourse(ctx context.Context, db *gorm.DB, userID string, courseID uint) (*models.CourseProgress, error) {
	var progress models.CourseProgress
	if err := db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("course progress not found for user %s and course %d", userID, courseID)
		}
		return nil, fmt.Errorf("failed to get course progress: %w", err)
	}
	return &progress, nil
}

// Update saves the full ledger row and drops its cache entry
func (p *ProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, progress *models.CourseProgress) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Save(progress).Error; err != nil {
		return fmt.Errorf("failed to update course progress: %w", err)
	}

	cache.InvalidateProgressCache(ctx, p.cacheManager, progress.UserID, progress.CourseID)

	return nil
}

// ListByCourse lists all progress rows for a course, ordered for export
func (p *ProgressPostgreSQL) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uint) ([]*models.CourseProgress, error) {
	db := p.getDB(tx)
	var rows []*models.CourseProgress
	if err := db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("user_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list course progress: %w", err)
	}
	return rows, nil
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}
