package storage

import (
	"context"
	"time"

	"github.com/save2win/save2win-front/internal/log"
)

// CleanupManager periodically deletes expired pending sign-ins
type CleanupManager struct {
	storage  Storage
	interval time.Duration
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(storage Storage, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		storage:  storage,
		interval: interval,
	}
}

// Run cleans up immediately and then every interval until ctx is done.
// It always returns nil so it can share an errgroup with the server.
func (cm *CleanupManager) Run(ctx context.Context) error {
	log.LogInfoWithFields("cleanup", "Starting pending sign-in cleanup", map[string]any{
		"interval": cm.interval.String(),
	})

	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.cleanup(ctx)
		case <-ctx.Done():
			log.LogInfoWithFields("cleanup", "Pending sign-in cleanup stopped", nil)
			return nil
		}
	}
}

// cleanup performs the actual cleanup operation
func (cm *CleanupManager) cleanup(ctx context.Context) {
	count, err := cm.storage.CleanupExpired(ctx)
	if err != nil {
		log.LogErrorWithFields("cleanup", "Failed to cleanup expired sign-ins", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if count > 0 {
		log.LogInfoWithFields("cleanup", "Cleaned up expired sign-ins", map[string]any{
			"count": count,
		})
	}
}
