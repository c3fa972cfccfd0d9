package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/internal/transport/http/middleware"
)

// FleetHandler serves operator views and actions on agents.
type FleetHandler struct {
	agents ports.AgentService
	tasks  ports.TaskService
	fleet  ports.FleetService
	logger *logger.Logger
}

func NewFleetHandler(agents ports.AgentService, tasks ports.TaskService, fleet ports.FleetService, logger *logger.Logger) *FleetHandler {
	return &FleetHandler{agents: agents, tasks: tasks, fleet: fleet, logger: logger}
}

func (h *FleetHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.agents.List(c.UserContext())
	if err != nil {
		h.logger.Errorw("agents_list_failed", "error", err)
		return respondError(c, err)
	}
	return c.JSON(agents)
}

func (h *FleetHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.agents.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(agent)
}

func (h *FleetHandler) Freeze(c *fiber.Ctx) error {
	agent, err := h.agents.Freeze(c.UserContext(), c.Params("id"), middleware.Operator(c))
	if err != nil {
		h.logger.Warnw("agent_freeze_failed", "id", c.Params("id"), "error", err)
		return respondError(c, err)
	}
	return c.JSON(agent)
}

func (h *FleetHandler) Unfreeze(c *fiber.Ctx) error {
	agent, err := h.agents.Unfreeze(c.UserContext(), c.Params("id"), middleware.Operator(c))
	if err != nil {
		h.logger.Warnw("agent_unfreeze_failed", "id", c.Params("id"), "error", err)
		return respondError(c, err)
	}
	return c.JSON(agent)
}

func (h *FleetHandler) DeleteAgent(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.fleet.RemoveAgent(c.UserContext(), id, middleware.Operator(c)); err != nil {
		h.logger.Warnw("agent_delete_failed", "id", id, "error", err)
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FleetHandler) AgentTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.GetForAgent(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tasks)
}
