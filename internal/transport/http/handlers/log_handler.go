package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/core/ports"
)

type LogHandler struct {
	logs ports.LogService
}

func NewLogHandler(logs ports.LogService) *LogHandler {
	return &LogHandler{logs: logs}
}

func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	count := c.QueryInt("count", 0)
	if count < 0 {
		return badRequest(c, "invalid count")
	}
	entries, err := h.logs.Recent(c.UserContext(), count)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}
