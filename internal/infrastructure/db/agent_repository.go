package db

import (
	"context"
	"errors"
	"time"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type agentRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRepository(db *gorm.DB, log *logger.Logger) ports.AgentRepository {
	return &agentRepository{db: db, log: log}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrRecordNotFound
	}
	return err
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		r.log.Errorw("agent_repo_create_failed", "host", agent.Host, "error", err)
		return err
	}
	r.log.Infow("agent_repo_create_ok", "id", agent.ID, "host", agent.Host)
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Errorw("agent_repo_get_failed", "id", id, "error", err)
		}
		return nil, notFound(err)
	}
	return &agent, nil
}

func (r *agentRepository) GetAll(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	if err := r.db.WithContext(ctx).Order("registered_at desc").Find(&agents).Error; err != nil {
		r.log.Errorw("agent_repo_list_failed", "error", err)
		return nil, err
	}
	return agents, nil
}

func (r *agentRepository) Touch(ctx context.Context, id string, at time.Time) (*domain.Agent, error) {
	res := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", id).Update("last_seen_at", at)
	if res.Error != nil {
		r.log.Errorw("agent_repo_touch_failed", "id", id, "error", res.Error)
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ports.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *agentRepository) SetFrozen(ctx context.Context, id string, frozen bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Agent{}).
		Where("id = ? AND frozen = ?", id, !frozen).
		Update("frozen", frozen)
	if res.Error != nil {
		r.log.Errorw("agent_repo_set_frozen_failed", "id", id, "frozen", frozen, "error", res.Error)
		return false, res.Error
	}
	r.log.Infow("agent_repo_set_frozen", "id", id, "frozen", frozen, "changed", res.RowsAffected > 0)
	return res.RowsAffected > 0, nil
}

func (r *agentRepository) SetAborted(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", id).Update("aborted", true)
	if res.Error != nil {
		r.log.Errorw("agent_repo_set_aborted_failed", "id", id, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	r.log.Infow("agent_repo_set_aborted_ok", "id", id)
	return nil
}

func (r *agentRepository) UpdateProfile(ctx context.Context, agent *domain.Agent) error {
	res := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", agent.ID).
		Updates(map[string]interface{}{
			"callback_delay":    agent.CallbackDelay,
			"working_directory": agent.WorkingDirectory,
		})
	if res.Error != nil {
		r.log.Errorw("agent_repo_update_failed", "id", agent.ID, "error", res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	r.log.Infow("agent_repo_update_ok", "id", agent.ID)
	return nil
}

func (r *agentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Agent{})
	if res.Error != nil {
		r.log.Errorw("agent_repo_delete_failed", "id", id, "error", res.Error)
		return false, res.Error
	}
	r.log.Infow("agent_repo_delete_ok", "id", id, "deleted", res.RowsAffected)
	return res.RowsAffected > 0, nil
}
