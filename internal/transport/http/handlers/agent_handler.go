package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/internal/transport/http/dto"
)

// AgentHandler serves the endpoints agents call home to.
type AgentHandler struct {
	fleet  ports.FleetService
	logger *logger.Logger
}

func NewAgentHandler(fleet ports.FleetService, logger *logger.Logger) *AgentHandler {
	return &AgentHandler{fleet: fleet, logger: logger}
}

func (h *AgentHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterAgentRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("agent_register_body_parse_failed", "error", err)
		return badRequest(c, "invalid request body")
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.logger.Warnw("agent_register_validation_failed", "details", errs)
		return badRequest(c, "validation failed", errs...)
	}

	cfg, err := h.fleet.Register(c.UserContext(), ports.RegisterAgentInput{
		Platform:         req.OS,
		Host:             req.Host,
		User:             req.User,
		WorkingDirectory: req.CWD,
		ProcessID:        req.PID,
		AgentType:        domain.AgentType(req.Capability()),
	})
	if err != nil {
		h.logger.Errorw("agent_register_failed", "host", req.Host, "error", err)
		return respondError(c, err)
	}

	h.logger.Infow("agent_register_success", "id", cfg.ID, "host", req.Host)
	return c.Status(fiber.StatusCreated).JSON(cfg)
}

func (h *AgentHandler) Poll(c *fiber.Ctx) error {
	id := c.Params("id")
	tasks, err := h.fleet.Poll(c.UserContext(), id)
	if err != nil {
		h.logger.Warnw("agent_poll_failed", "id", id, "error", err)
		return respondError(c, err)
	}
	return c.JSON(tasks)
}

func (h *AgentHandler) SubmitResults(c *fiber.Ctx) error {
	id := c.Params("id")
	var results []json.RawMessage
	if err := json.Unmarshal(c.Body(), &results); err != nil {
		h.logger.Warnw("agent_results_body_parse_failed", "id", id, "error", err)
		return badRequest(c, "request body must be an array of results")
	}

	accepted, err := h.fleet.SubmitResults(c.UserContext(), id, results)
	if err != nil {
		h.logger.Warnw("agent_results_failed", "id", id, "error", err)
		return respondError(c, err)
	}
	return c.JSON(dto.SubmitResultsResponse{Accepted: accepted})
}

func (h *AgentHandler) Ping(c *fiber.Ctx) error {
	if err := h.fleet.Ping(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
