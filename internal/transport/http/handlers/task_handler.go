package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/internal/transport/http/dto"
	"github.com/hivectl/backend/internal/transport/http/middleware"
)

type TaskHandler struct {
	tasks  ports.TaskService
	logger *logger.Logger
}

func NewTaskHandler(tasks ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// ListTasks returns every agent's tasks keyed by agent id.
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	grouped, err := h.tasks.GetAllGroupedByAgent(c.UserContext())
	if err != nil {
		h.logger.Errorw("tasks_list_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(grouped)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("task_create_body_parse_failed", "error", err)
		return badRequest(c, "invalid request body")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return badRequest(c, "validation failed", errs...)
	}

	task, err := h.tasks.CreateTask(c.UserContext(), ports.CreateTaskInput{
		Owner:   middleware.Operator(c),
		AgentID: req.AgentID,
		Kind:    domain.TaskKind(req.Kind),
		Payload: req.Data,
	})
	if err != nil {
		h.logger.Warnw("task_create_failed", "agent_id", req.AgentID, "error", err)
		return respondError(c, err)
	}
	if task == nil {
		// The agent is aborted; nothing was queued.
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	agentID, taskID := c.Params("id"), c.Params("taskId")
	if err := h.tasks.DeleteTask(c.UserContext(), agentID, taskID, middleware.Operator(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
