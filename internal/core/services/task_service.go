package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hivectl/backend/internal/core/decoder"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/pkg/utils/keygen"
)

type taskService struct {
	repo         ports.TaskRepository
	agents       ports.AgentService
	decoder      *decoder.Decoder
	bus          ports.EventBus
	logs         ports.LogService
	logger       *logger.Logger
	serverPrompt string
	hooks        *completionTable
	locks        *keyLocks
}

type TaskServiceConfig struct {
	Repository   ports.TaskRepository
	Agents       ports.AgentService
	Decoder      *decoder.Decoder
	Bus          ports.EventBus
	Logs         ports.LogService
	Logger       *logger.Logger
	ServerPrompt string
}

func NewTaskService(cfg TaskServiceConfig) ports.TaskService {
	dec := cfg.Decoder
	if dec == nil {
		dec = decoder.New(decoder.DefaultMaxKeyCodes)
	}
	return &taskService{
		repo:         cfg.Repository,
		agents:       cfg.Agents,
		decoder:      dec,
		bus:          cfg.Bus,
		logs:         cfg.Logs,
		logger:       cfg.Logger,
		serverPrompt: cfg.ServerPrompt,
		hooks:        newCompletionTable(),
		locks:        newKeyLocks(),
	}
}

func taskErr(err error) error {
	if errors.Is(err, ports.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return err
}

// CreateTask queues work for an agent. It returns a nil task and no error
// when the agent has been aborted.
func (s *taskService) CreateTask(ctx context.Context, input ports.CreateTaskInput) (*domain.Task, error) {
	if !input.Kind.Valid() {
		return nil, ErrTaskInvalidKind
	}
	owner := input.Owner
	if owner == "" {
		owner = domain.SystemOwner
	}

	// Serializes the aborted check against a concurrent abort for the agent.
	unlock := s.locks.lock("agent:" + input.AgentID)
	defer unlock()

	agent, err := s.agents.Get(ctx, input.AgentID)
	if err != nil {
		return nil, err
	}
	if agent.Aborted {
		s.logger.Warnw("task_create_skipped_aborted", "agent_id", agent.ID, "kind", input.Kind, "owner", owner)
		return nil, nil
	}

	id, err := keygen.NewID()
	if err != nil {
		s.logger.Errorw("task_id_generation_failed", "error", err)
		return nil, err
	}

	payload := input.Payload
	if payload == nil {
		payload = domain.JSONB{}
	}
	task := &domain.Task{
		ID:        id,
		Owner:     owner,
		AgentID:   agent.ID,
		Kind:      input.Kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	s.hooks.put(task.ID, input.OnComplete)

	if task.Kind == domain.KindAbort {
		if err := s.agents.MarkAborted(ctx, agent.ID); err != nil {
			s.logger.Errorw("agent_mark_aborted_failed", "agent_id", agent.ID, "error", err)
		} else {
			s.logs.Warning(ctx, fmt.Sprintf("Abort queued for agent %s (%s) by %s", agent.Prompt(), agent.ID, owner))
		}
	}

	s.bus.Publish(ctx, domain.NewEvent(domain.EventNewTask, task))
	publishConsole(ctx, s.bus, agent.ID, s.serverPrompt, fmt.Sprintf("Task %s queued: %s", task.ID, task.Kind))
	return task, nil
}

// GetPending lists undelivered tasks. A frozen agent has none.
func (s *taskService) GetPending(ctx context.Context, agentID string) ([]domain.Task, error) {
	agent, err := s.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Frozen {
		return []domain.Task{}, nil
	}
	return s.repo.GetPending(ctx, agentID)
}

// MarkReceived records delivery. The flag reports whether this call did the
// transition; a task that is gone yields (nil, false, nil).
func (s *taskService) MarkReceived(ctx context.Context, taskID string) (*domain.Task, bool, error) {
	delivered, err := s.repo.MarkReceived(ctx, taskID, time.Now())
	if err != nil {
		return nil, false, err
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			s.logger.Warnw("task_mark_received_vanished", "id", taskID)
			return nil, false, nil
		}
		return nil, false, err
	}
	if delivered {
		s.bus.Publish(ctx, domain.NewEvent(domain.EventUpdateTask, task))
	}
	return task, delivered, nil
}

// SetResult records the result of a running task of the agent. Completion is
// claimed atomically; a second submission for the same task fails.
func (s *taskService) SetResult(ctx context.Context, agentID string, raw json.RawMessage) (*domain.Task, error) {
	res, err := decoder.ParseRawResult(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTaskResultFormat, err)
	}

	task, err := s.repo.GetByID(ctx, res.TaskID)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return nil, ErrTaskUnknown
		}
		return nil, err
	}
	if task.AgentID != agentID || !task.Running() {
		return nil, ErrTaskNotRunning
	}

	agent, err := s.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	out := s.decoder.Decode(task.Kind, agent.OS(), res)
	now := time.Now()
	task.Completed = true
	task.CompletedAt = &now
	task.Successful = out.Successful
	task.Result = out.Display
	if len(out.Payload) > 0 {
		if task.Payload == nil {
			task.Payload = domain.JSONB{}
		}
		for k, v := range out.Payload {
			task.Payload[k] = v
		}
	}

	claimed, err := s.repo.Complete(ctx, task)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrTaskNotRunning
	}

	// The hook runs after the claim so a duplicate submission fails before it
	// can touch the agent.
	agentChanged := false
	if hook, ok := s.hooks.take(task.ID); ok {
		updated, err := s.applyHook(ctx, hook, agentID, task)
		if err != nil {
			s.logger.Errorw("task_completion_hook_failed", "id", task.ID, "agent_id", agentID, "error", err)
		} else if updated != nil {
			agent = updated
			agentChanged = true
		}
	}

	s.logger.Infow("task_completed", "id", task.ID, "agent_id", agentID, "kind", task.Kind, "successful", task.Successful)
	s.bus.Publish(ctx, domain.NewEvent(domain.EventUpdateTask, task))
	if !agentChanged {
		s.bus.Publish(ctx, domain.NewEvent(domain.EventUpdateAgent, agent))
	}
	publishConsole(ctx, s.bus, agentID, agent.Prompt(), task.Result)
	return task, nil
}

// applyHook runs a completion hook against a fresh copy of the agent under the
// agent lock, so concurrent completions each keep the field they changed. It
// returns nil when the agent was left unchanged.
func (s *taskService) applyHook(ctx context.Context, hook domain.CompletionHook, agentID string, task *domain.Task) (*domain.Agent, error) {
	apply := completionHooks[hook]
	if apply == nil {
		return nil, nil
	}

	unlock := s.locks.lock("agent:" + agentID)
	defer unlock()

	agent, err := s.agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !apply(agent, task) {
		return nil, nil
	}
	if err := s.agents.ApplyCompletion(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *taskService) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, taskErr(err)
	}
	return task, nil
}

func (s *taskService) GetForAgent(ctx context.Context, agentID string) ([]domain.Task, error) {
	if _, err := s.agents.Get(ctx, agentID); err != nil {
		return nil, err
	}
	return s.repo.GetByAgent(ctx, agentID)
}

// GetAllGroupedByAgent maps every registered agent to its tasks, newest
// first. Agents without tasks map to an empty slice.
func (s *taskService) GetAllGroupedByAgent(ctx context.Context) (map[string][]domain.Task, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.Task, len(agents))
	for _, a := range agents {
		grouped[a.ID] = []domain.Task{}
	}
	for _, t := range tasks {
		if list, ok := grouped[t.AgentID]; ok {
			grouped[t.AgentID] = append(list, t)
		}
	}
	return grouped, nil
}

func (s *taskService) DeleteTask(ctx context.Context, agentID, taskID, actor string) error {
	deleted, err := s.repo.Delete(ctx, agentID, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}
	s.hooks.drop(taskID)

	s.logger.Infow("task_deleted", "id", taskID, "agent_id", agentID, "actor", actor)
	s.bus.Publish(ctx, domain.NewEvent(domain.EventTaskDeleted, domain.TaskDeleted{
		AgentID: agentID,
		TaskID:  taskID,
		User:    actor,
	}))
	return nil
}

func (s *taskService) DeleteAllTasksForAgent(ctx context.Context, agentID string) error {
	ids, err := s.repo.DeleteByAgent(ctx, agentID)
	if err != nil {
		return err
	}
	s.hooks.drop(ids...)
	return nil
}
