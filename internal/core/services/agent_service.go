package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/pkg/utils/keygen"
)

type agentService struct {
	repo         ports.AgentRepository
	bus          ports.EventBus
	logs         ports.LogService
	logger       *logger.Logger
	defaultDelay int
	serverPrompt string
}

type AgentServiceConfig struct {
	Repository   ports.AgentRepository
	Bus          ports.EventBus
	Logs         ports.LogService
	Logger       *logger.Logger
	DefaultDelay int
	ServerPrompt string
}

func NewAgentService(cfg AgentServiceConfig) ports.AgentService {
	return &agentService{
		repo:         cfg.Repository,
		bus:          cfg.Bus,
		logs:         cfg.Logs,
		logger:       cfg.Logger,
		defaultDelay: cfg.DefaultDelay,
		serverPrompt: cfg.ServerPrompt,
	}
}

func agentErr(err error) error {
	if errors.Is(err, ports.ErrRecordNotFound) {
		return ErrAgentNotFound
	}
	return err
}

func (s *agentService) Register(ctx context.Context, input ports.RegisterAgentInput) (*domain.Agent, domain.AgentConfig, error) {
	if input.AgentType != domain.AgentTypeNative && input.AgentType != domain.AgentTypeScript {
		return nil, domain.AgentConfig{}, ErrAgentInvalidProfile
	}

	id, err := keygen.NewID()
	if err != nil {
		s.logger.Errorw("agent_id_generation_failed", "error", err)
		return nil, domain.AgentConfig{}, err
	}

	now := time.Now()
	agent := &domain.Agent{
		ID:               id,
		CallbackDelay:    s.defaultDelay,
		Platform:         input.Platform,
		Host:             input.Host,
		User:             input.User,
		WorkingDirectory: input.WorkingDirectory,
		ProcessID:        input.ProcessID,
		AgentType:        input.AgentType,
		RegisteredAt:     now,
		LastSeenAt:       now,
	}
	if err := s.repo.Create(ctx, agent); err != nil {
		return nil, domain.AgentConfig{}, err
	}

	s.logger.Infow("agent_registered", "id", agent.ID, "host", agent.Host, "user", agent.User, "os", agent.Platform)
	s.bus.Publish(ctx, domain.NewEvent(domain.EventNewAgent, agent))
	s.logs.Status(ctx, fmt.Sprintf("New agent registered: %s (%s)", agent.Prompt(), agent.ID))

	return agent, domain.AgentConfig{ID: agent.ID, Delay: agent.CallbackDelay}, nil
}

func (s *agentService) Touch(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.repo.Touch(ctx, id, time.Now())
	if err != nil {
		return nil, agentErr(err)
	}
	s.bus.Publish(ctx, domain.NewEvent(domain.EventUpdateAgent, agent))
	return agent, nil
}

func (s *agentService) Freeze(ctx context.Context, id, actor string) (*domain.Agent, error) {
	return s.setFrozen(ctx, id, actor, true)
}

func (s *agentService) Unfreeze(ctx context.Context, id, actor string) (*domain.Agent, error) {
	return s.setFrozen(ctx, id, actor, false)
}

func (s *agentService) setFrozen(ctx context.Context, id, actor string, frozen bool) (*domain.Agent, error) {
	changed, err := s.repo.SetFrozen(ctx, id, frozen)
	if err != nil {
		return nil, err
	}

	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			// Freezing a missing agent is a rejected transition as well.
			return nil, fmt.Errorf("%w: %w", ErrAgentNotFound, ErrInvalidState)
		}
		return nil, err
	}
	if !changed {
		if frozen {
			return nil, ErrAgentAlreadyFrozen
		}
		return nil, ErrAgentNotFrozen
	}

	verb := "unfrozen"
	if frozen {
		verb = "frozen"
	}
	s.logger.Infow("agent_"+verb, "id", id, "actor", actor)
	s.bus.Publish(ctx, domain.NewEvent(domain.EventUpdateAgent, agent))
	publishConsole(ctx, s.bus, id, s.serverPrompt, fmt.Sprintf("Agent %s by %s", verb, actor))
	s.logs.Status(ctx, fmt.Sprintf("Agent %s (%s) %s by %s", agent.Prompt(), id, verb, actor))
	return agent, nil
}

func (s *agentService) MarkAborted(ctx context.Context, id string) error {
	if err := s.repo.SetAborted(ctx, id); err != nil {
		return agentErr(err)
	}
	return nil
}

// ApplyCompletion persists agent fields changed by a completion hook.
func (s *agentService) ApplyCompletion(ctx context.Context, agent *domain.Agent) error {
	if err := s.repo.UpdateProfile(ctx, agent); err != nil {
		return agentErr(err)
	}
	s.bus.Publish(ctx, domain.NewEvent(domain.EventUpdateAgent, agent))
	return nil
}

func (s *agentService) Delete(ctx context.Context, id, actor string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrAgentNotFound
	}

	s.logger.Infow("agent_deleted", "id", id, "actor", actor)
	s.bus.Publish(ctx, domain.NewEvent(domain.EventAgentDeleted, domain.AgentDeleted{AgentID: id, User: actor}))
	s.logs.Warning(ctx, fmt.Sprintf("Agent %s deleted by %s", id, actor))
	return nil
}

func (s *agentService) Get(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, agentErr(err)
	}
	return agent, nil
}

func (s *agentService) List(ctx context.Context) ([]domain.Agent, error) {
	return s.repo.GetAll(ctx)
}
