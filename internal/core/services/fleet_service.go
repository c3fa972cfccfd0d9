package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
)

type fleetService struct {
	agents ports.AgentService
	tasks  ports.TaskService
	logs   ports.LogService
	logger *logger.Logger
}

type FleetServiceConfig struct {
	Agents ports.AgentService
	Tasks  ports.TaskService
	Logs   ports.LogService
	Logger *logger.Logger
}

func NewFleetService(cfg FleetServiceConfig) ports.FleetService {
	return &fleetService{
		agents: cfg.Agents,
		tasks:  cfg.Tasks,
		logs:   cfg.Logs,
		logger: cfg.Logger,
	}
}

func (s *fleetService) Register(ctx context.Context, input ports.RegisterAgentInput) (domain.AgentConfig, error) {
	_, cfg, err := s.agents.Register(ctx, input)
	return cfg, err
}

// Poll refreshes the agent and hands out its pending tasks. Only tasks this
// call marked as received are returned, so a task is never delivered twice.
func (s *fleetService) Poll(ctx context.Context, agentID string) ([]domain.PendingTask, error) {
	if _, err := s.agents.Touch(ctx, agentID); err != nil {
		return nil, err
	}
	pending, err := s.tasks.GetPending(ctx, agentID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PendingTask, 0, len(pending))
	for i := range pending {
		task, delivered, err := s.tasks.MarkReceived(ctx, pending[i].ID)
		if err != nil {
			return nil, err
		}
		if !delivered {
			continue
		}
		out = append(out, task.Pending())
	}
	if len(out) > 0 {
		s.logger.Infow("agent_poll_ok", "agent_id", agentID, "delivered", len(out))
	}
	return out, nil
}

// SubmitResults records each result on its own. A rejected result is logged
// and skipped; the number of accepted results is returned.
func (s *fleetService) SubmitResults(ctx context.Context, agentID string, results []json.RawMessage) (int, error) {
	if _, err := s.agents.Touch(ctx, agentID); err != nil {
		return 0, err
	}

	accepted := 0
	for _, raw := range results {
		if _, err := s.tasks.SetResult(ctx, agentID, raw); err != nil {
			s.logger.Warnw("submit_result_failed", "agent_id", agentID, "error", err)
			s.logs.Error(ctx, fmt.Sprintf("Rejected result from agent %s: %v", agentID, err))
			continue
		}
		accepted++
	}
	return accepted, nil
}

func (s *fleetService) Ping(ctx context.Context, agentID string) error {
	_, err := s.agents.Touch(ctx, agentID)
	return err
}

// RemoveAgent deletes the agent, then its tasks.
func (s *fleetService) RemoveAgent(ctx context.Context, agentID, actor string) error {
	if err := s.agents.Delete(ctx, agentID, actor); err != nil {
		return err
	}
	if err := s.tasks.DeleteAllTasksForAgent(ctx, agentID); err != nil {
		s.logger.Errorw("agent_tasks_cleanup_failed", "agent_id", agentID, "error", err)
		return err
	}
	return nil
}
