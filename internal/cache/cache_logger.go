package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateBankCache invalidates the cached question bank for a module
func InvalidateBankCache(ctx context.Context, cm *CacheManager, moduleID uint) {
	SafeDelete(ctx, cm.Bank, fmt.Sprintf("module:%d", moduleID))
	SafeInvalidatePattern(ctx, cm.Bank, fmt.Sprintf("module:%d:*", moduleID))
}

// InvalidateProgressCache invalidates the cached progress row for a learner
func InvalidateProgressCache(ctx context.Context, cm *CacheManager, userID string, courseID uint) {
	SafeDelete(ctx, cm.Progress, fmt.Sprintf("user:%s:course:%d", userID, courseID))
}

// InvalidateCourseCache invalidates course metadata after completion counters move
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint) {
	SafeDelete(ctx, cm.Course, fmt.Sprintf("id:%d", courseID))
}
