package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/core/services"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/hivectl/backend/internal/transport/http/dto"
	"github.com/hivectl/backend/internal/transport/http/middleware"
	"github.com/hivectl/backend/internal/transport/ws"
)

// ConsoleHandler owns the operator websocket: it registers the session with
// the hub and turns inbound frames into commands.
type ConsoleHandler struct {
	hub        *ws.Hub
	dispatcher ports.CommandDispatcher
	tasks      ports.TaskService
	logger     *logger.Logger
}

func NewConsoleHandler(hub *ws.Hub, dispatcher ports.CommandDispatcher, tasks ports.TaskService, logger *logger.Logger) *ConsoleHandler {
	return &ConsoleHandler{hub: hub, dispatcher: dispatcher, tasks: tasks, logger: logger}
}

func (h *ConsoleHandler) Handle(c *websocket.Conn) {
	operator, _ := c.Locals(middleware.LocalOperator).(string)
	if operator == "" {
		operator = "operator"
	}
	admin, _ := c.Locals(middleware.LocalAdmin).(bool)

	id := h.hub.Register(operator, admin, c)
	defer h.hub.Unregister(id)
	h.logger.Infow("console_session_open", "session", id, "operator", operator, "admin", admin)

	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warnw("console_session_read_failed", "session", id, "error", err)
			}
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.HandleFrame(context.Background(), operator, id, msg)
	}
	h.logger.Infow("console_session_closed", "session", id, "operator", operator)
}

// HandleFrame processes one inbound message from session. Failures are sent
// back to that session only.
func (h *ConsoleHandler) HandleFrame(ctx context.Context, operator, session string, raw []byte) {
	var frame dto.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		h.reject(session, "Malformed message!")
		return
	}

	switch frame.Event {
	case dto.FrameConsoleInput:
		var in dto.ConsoleInput
		if err := json.Unmarshal(frame.Data, &in); err != nil || in.AgentID == "" {
			h.reject(session, "Malformed message!")
			return
		}
		if _, err := h.dispatcher.Dispatch(ctx, operator, in.AgentID, in.Input); err != nil {
			h.logger.Warnw("console_dispatch_failed", "agent_id", in.AgentID, "error", err)
			h.reject(session, consoleError(err))
		}

	case dto.FrameCreateTask:
		var req dto.CreateTaskRequest
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			h.reject(session, "Malformed message!")
			return
		}
		if errs := req.Validate(); len(errs) > 0 {
			h.reject(session, errs[0])
			return
		}
		_, err := h.tasks.CreateTask(ctx, ports.CreateTaskInput{
			Owner:   operator,
			AgentID: req.AgentID,
			Kind:    domain.TaskKind(req.Kind),
			Payload: req.Data,
		})
		if err != nil {
			h.logger.Warnw("console_create_task_failed", "agent_id", req.AgentID, "error", err)
			h.reject(session, consoleError(err))
		}

	default:
		h.reject(session, "Unknown event: "+frame.Event)
	}
}

func (h *ConsoleHandler) reject(session, msg string) {
	h.hub.SendToSession(session, domain.NewEvent(domain.EventConsoleError, dto.ConsoleError{Message: msg}))
}

func consoleError(err error) string {
	if errors.Is(err, services.ErrAgentNotFound) {
		return "Invalid agent!"
	}
	if statusFor(err) == fiber.StatusInternalServerError {
		return "Internal error"
	}
	return err.Error()
}
