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

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return &taskRepository{db: db, log: log}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		r.log.Errorw("task_repo_create_failed", "agent_id", task.AgentID, "kind", task.Kind, "error", err)
		return err
	}
	r.log.Infow("task_repo_create_ok", "id", task.ID, "agent_id", task.AgentID, "kind", task.Kind)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		}
		return nil, notFound(err)
	}
	return &task, nil
}

func (r *taskRepository) GetByAgent(ctx context.Context, agentID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("created_at desc").
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_get_by_agent_failed", "agent_id", agentID, "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) GetPending(ctx context.Context, agentID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND received = ?", agentID, false).
		Order("created_at asc").
		Find(&tasks).Error
	if err != nil {
		r.log.Errorw("task_repo_get_pending_failed", "agent_id", agentID, "error", err)
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&tasks).Error; err != nil {
		r.log.Errorw("task_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Debugw("task_repo_list_ok", "count", len(tasks))
	return tasks, nil
}

func (r *taskRepository) MarkReceived(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND received = ?", id, false).
		Updates(map[string]interface{}{"received": true, "received_at": at})
	if res.Error != nil {
		r.log.Errorw("task_repo_mark_received_failed", "id", id, "error", res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *taskRepository) Complete(ctx context.Context, task *domain.Task) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND received = ? AND completed = ?", task.ID, true, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": task.CompletedAt,
			"successful":   task.Successful,
			"result":       task.Result,
			"payload":      task.Payload,
		})
	if res.Error != nil {
		r.log.Errorw("task_repo_complete_failed", "id", task.ID, "error", res.Error)
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		r.log.Infow("task_repo_complete_ok", "id", task.ID, "successful", task.Successful)
	}
	return res.RowsAffected > 0, nil
}

func (r *taskRepository) Delete(ctx context.Context, agentID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND agent_id = ?", id, agentID).Delete(&domain.Task{})
	if res.Error != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", res.Error)
		return false, res.Error
	}
	r.log.Infow("task_repo_delete_ok", "id", id, "deleted", res.RowsAffected)
	return res.RowsAffected > 0, nil
}

func (r *taskRepository) DeleteByAgent(ctx context.Context, agentID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Task{}).Where("agent_id = ?", agentID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		return tx.Where("agent_id = ?", agentID).Delete(&domain.Task{}).Error
	})
	if err != nil {
		r.log.Errorw("task_repo_delete_by_agent_failed", "agent_id", agentID, "error", err)
		return nil, err
	}
	r.log.Infow("task_repo_delete_by_agent_ok", "agent_id", agentID, "count", len(ids))
	return ids, nil
}
