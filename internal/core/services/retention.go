package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

// RetentionJob periodically prunes the event log.
type RetentionJob struct {
	cron      *cron.Cron
	logs      ports.LogService
	retention time.Duration
	logger    *logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

type RetentionJobConfig struct {
	Logs      ports.LogService
	Logger    *logger.Logger
	Schedule  string
	Retention time.Duration
}

func NewRetentionJob(cfg RetentionJobConfig) (*RetentionJob, error) {
	if cfg.Retention <= 0 {
		return nil, fmt.Errorf("retention: must be positive, got %s", cfg.Retention)
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("retention: invalid schedule %q: %w", cfg.Schedule, err)
	}

	j := &RetentionJob{
		cron:      cron.New(),
		logs:      cfg.Logs,
		retention: cfg.Retention,
		logger:    cfg.Logger,
	}
	j.cron.Schedule(schedule, cron.FuncJob(j.run))
	return j, nil
}

func (j *RetentionJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.cron.Start()
	j.started = true
}

// Stop cancels a running prune and waits for it to return.
func (j *RetentionJob) Stop() {
	j.mu.Lock()
	if !j.started {
		j.mu.Unlock()
		return
	}
	j.cancel()
	j.started = false
	j.mu.Unlock()

	<-j.cron.Stop().Done()
}

func (j *RetentionJob) run() {
	j.mu.Lock()
	ctx := j.ctx
	j.mu.Unlock()
	if ctx == nil {
		return
	}
	j.RunOnce(ctx)
}

// RunOnce prunes immediately.
func (j *RetentionJob) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	n, err := j.logs.Cleanup(ctx, j.retention)
	if err != nil {
		j.logger.Warnw("log_retention_failed", "error", err, "duration", time.Since(start))
		return
	}
	j.logger.Infow("log_retention_ok", "deleted", n, "duration", time.Since(start))
}
