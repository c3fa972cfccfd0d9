package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hivectl/backend/internal/domain"
)

// EventBus is the publish side of the operator broadcast. Publish never
// blocks on slow recipients and delivers at most once.
type EventBus interface {
	Publish(ctx context.Context, event domain.Event)
}

type AgentService interface {
	Register(ctx context.Context, input RegisterAgentInput) (*domain.Agent, domain.AgentConfig, error)
	Touch(ctx context.Context, id string) (*domain.Agent, error)
	Freeze(ctx context.Context, id, actor string) (*domain.Agent, error)
	Unfreeze(ctx context.Context, id, actor string) (*domain.Agent, error)
	MarkAborted(ctx context.Context, id string) error
	ApplyCompletion(ctx context.Context, agent *domain.Agent) error
	Delete(ctx context.Context, id, actor string) error
	Get(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context) ([]domain.Agent, error)
}

type RegisterAgentInput struct {
	Platform         string
	Host             string
	User             string
	WorkingDirectory string
	ProcessID        int
	AgentType        domain.AgentType
}

type TaskService interface {
	CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error)
	GetPending(ctx context.Context, agentID string) ([]domain.Task, error)
	MarkReceived(ctx context.Context, taskID string) (*domain.Task, bool, error)
	SetResult(ctx context.Context, agentID string, raw json.RawMessage) (*domain.Task, error)
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	GetForAgent(ctx context.Context, agentID string) ([]domain.Task, error)
	GetAllGroupedByAgent(ctx context.Context) (map[string][]domain.Task, error)
	DeleteTask(ctx context.Context, agentID, taskID, actor string) error
	DeleteAllTasksForAgent(ctx context.Context, agentID string) error
}

type CreateTaskInput struct {
	Owner      string
	AgentID    string
	Kind       domain.TaskKind
	Payload    domain.JSONB
	OnComplete domain.CompletionHook
}

type LogService interface {
	Status(ctx context.Context, msg string)
	Warning(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Recent(ctx context.Context, count int) ([]domain.LogEntry, error)
	// Cleanup deletes entries older than the given age and returns how many
	// were removed.
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// FleetService is the agent-facing side: polling, result submission and
// liveness, plus removal of an agent together with its tasks.
type FleetService interface {
	Register(ctx context.Context, input RegisterAgentInput) (domain.AgentConfig, error)
	Poll(ctx context.Context, agentID string) ([]domain.PendingTask, error)
	SubmitResults(ctx context.Context, agentID string, results []json.RawMessage) (int, error)
	Ping(ctx context.Context, agentID string) error
	RemoveAgent(ctx context.Context, agentID, actor string) error
}

// CommandDispatcher turns one line of console input into tasks.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, actor, agentID, input string) ([]*domain.Task, error)
}
