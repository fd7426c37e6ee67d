package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/domain/model"
)

const (
	defaultBatchSize   = 100
	defaultMaxAttempts = 10
)

type TombstoneStore interface {
	ListTombstones(ctx context.Context, maxAttempts, limit int) ([]model.MediaTombstone, error)
	DeleteTombstone(ctx context.Context, id int64) error
	MarkTombstoneAttempt(ctx context.Context, id int64, at time.Time) error
}

type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Job retries object deletions that failed during uploads, replacements and image removal.
type Job struct {
	store       TombstoneStore
	storage     ObjectDeleter
	batchSize   int
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

func New(store TombstoneStore, storage ObjectDeleter, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:       store,
		storage:     storage,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
		logger:      logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.store == nil || j.storage == nil {
		return nil
	}

	items, err := j.store.ListTombstones(ctx, j.maxAttempts, j.batchSize)
	if err != nil {
		return fmt.Errorf("list media tombstones: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	deleted := 0
	for _, item := range items {
		if err := j.storage.Delete(ctx, item.ObjectKey); err != nil {
			j.logger.Warn("retry object delete failed",
				zap.Error(err),
				zap.String("object_key", item.ObjectKey),
				zap.Int("attempts", item.Attempts+1),
			)
			if err := j.store.MarkTombstoneAttempt(ctx, item.ID, j.now().UTC()); err != nil {
				return fmt.Errorf("mark tombstone attempt: %w", err)
			}
			continue
		}
		if err := j.store.DeleteTombstone(ctx, item.ID); err != nil {
			return fmt.Errorf("delete media tombstone: %w", err)
		}
		deleted++
	}

	j.logger.Info("cleanup media tombstones completed", zap.Int("deleted", deleted), zap.Int("pending", len(items)-deleted))
	return nil
}
