package db

import (
	"context"
	"time"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type logRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLogRepository(db *gorm.DB, log *logger.Logger) ports.LogRepository {
	return &logRepository{
		db:  db,
		log: log,
	}
}

func (r *logRepository) Create(ctx context.Context, entry *domain.LogEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.log.Errorw("log_repo_create_failed", "level", entry.Level, "error", err)
		return err
	}
	return nil
}

func (r *logRepository) GetRecent(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	var entries []domain.LogEntry
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		r.log.Errorw("log_repo_list_failed", "error", err)
		return nil, err
	}
	return entries, nil
}

// CleanupOld removes entries older than the specified duration
func (r *logRepository) CleanupOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.LogEntry{})
	if res.Error != nil {
		r.log.Errorw("log_repo_cleanup_failed", "error", res.Error)
		return 0, res.Error
	}
	r.log.Infow("log_repo_cleanup_ok", "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}
