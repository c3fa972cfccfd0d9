package ports

import (
	"context"
	"errors"
	"time"

	"github.com/hivectl/backend/internal/domain"
)

// ErrRecordNotFound is returned by repositories when the addressed row does
// not exist.
var ErrRecordNotFound = errors.New("record not found")

type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	// GetAll returns agents newest first.
	GetAll(ctx context.Context) ([]domain.Agent, error)
	Touch(ctx context.Context, id string, at time.Time) (*domain.Agent, error)
	// SetFrozen flips the flag only if it currently differs. It reports
	// whether a row changed.
	SetFrozen(ctx context.Context, id string, frozen bool) (bool, error)
	SetAborted(ctx context.Context, id string) error
	// UpdateProfile persists the fields completion hooks may change.
	UpdateProfile(ctx context.Context, agent *domain.Agent) error
	Delete(ctx context.Context, id string) (bool, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	// GetByAgent returns the agent's tasks newest first.
	GetByAgent(ctx context.Context, agentID string) ([]domain.Task, error)
	GetPending(ctx context.Context, agentID string) ([]domain.Task, error)
	GetAll(ctx context.Context) ([]domain.Task, error)
	// MarkReceived sets received only if it is still false. It reports
	// whether this call performed the transition.
	MarkReceived(ctx context.Context, id string, at time.Time) (bool, error)
	// Complete writes the result fields only if the task is received and not
	// yet completed. It reports whether this call performed the transition.
	Complete(ctx context.Context, task *domain.Task) (bool, error)
	Delete(ctx context.Context, agentID, id string) (bool, error)
	// DeleteByAgent removes every task of the agent and returns their ids.
	DeleteByAgent(ctx context.Context, agentID string) ([]string, error)
}

type LogRepository interface {
	Create(ctx context.Context, entry *domain.LogEntry) error
	GetRecent(ctx context.Context, limit int) ([]domain.LogEntry, error)
	CleanupOld(ctx context.Context, olderThan time.Duration) (int64, error)
}
