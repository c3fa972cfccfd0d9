package services

import (
	"context"
	"time"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
)

const defaultLogCount = 50

type logService struct {
	repo   ports.LogRepository
	bus    ports.EventBus
	logger *logger.Logger
}

type LogServiceConfig struct {
	Repository ports.LogRepository
	Bus        ports.EventBus
	Logger     *logger.Logger
}

// NewLogService returns the operator event log. Entries are only pushed to
// admin sessions.
func NewLogService(cfg LogServiceConfig) ports.LogService {
	return &logService{
		repo:   cfg.Repository,
		bus:    cfg.Bus,
		logger: cfg.Logger,
	}
}

func (s *logService) Status(ctx context.Context, msg string) {
	s.record(ctx, domain.LogLevelStatus, msg)
}

func (s *logService) Warning(ctx context.Context, msg string) {
	s.record(ctx, domain.LogLevelWarning, msg)
}

func (s *logService) Error(ctx context.Context, msg string) {
	s.record(ctx, domain.LogLevelError, msg)
}

func (s *logService) record(ctx context.Context, level domain.LogLevel, msg string) {
	entry := &domain.LogEntry{
		Level:     level,
		Message:   msg,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Errorw("event_log_write_failed", "level", level, "message", msg, "error", err)
		return
	}
	s.bus.Publish(ctx, domain.Event{
		Type:     domain.EventNewLog,
		Data:     entry,
		Audience: domain.AudienceAdmins,
	})
}

func (s *logService) Recent(ctx context.Context, count int) ([]domain.LogEntry, error) {
	if count <= 0 {
		count = defaultLogCount
	}
	return s.repo.GetRecent(ctx, count)
}

func (s *logService) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.repo.CleanupOld(ctx, olderThan)
}
