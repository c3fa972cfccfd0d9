package dto

import (
	"encoding/json"

	"github.com/hivectl/backend/internal/domain"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// RegisterAgentRequest is the call-home body sent by a new agent.
type RegisterAgentRequest struct {
	OS        string `json:"os"`
	Host      string `json:"host"`
	User      string `json:"user"`
	CWD       string `json:"cwd"`
	PID       int    `json:"pid"`
	// Type is the capability type agents report (0 native, 1 script).
	// AgentType is accepted as an alias.
	Type      *int   `json:"type"`
	AgentType *int   `json:"agentType"`
}

// Capability returns the reported agent type, native when absent.
func (r *RegisterAgentRequest) Capability() int {
	switch {
	case r.Type != nil:
		return *r.Type
	case r.AgentType != nil:
		return *r.AgentType
	}
	return int(domain.AgentTypeNative)
}

func (r *RegisterAgentRequest) Validate() []string {
	var errors []string
	if r.Host == "" {
		errors = append(errors, "host is required")
	}
	if r.User == "" {
		errors = append(errors, "user is required")
	}
	if r.PID < 0 {
		errors = append(errors, "pid must not be negative")
	}
	if t := r.Capability(); t != int(domain.AgentTypeNative) && t != int(domain.AgentTypeScript) {
		errors = append(errors, "type must be 0 or 1")
	}
	return errors
}

type SubmitResultsResponse struct {
	Accepted int `json:"accepted"`
}

// CreateTaskRequest queues a prepared task without going through the console
// grammar.
type CreateTaskRequest struct {
	AgentID string       `json:"agentID"`
	Kind    string       `json:"taskType"`
	Data    domain.JSONB `json:"data"`
}

func (r *CreateTaskRequest) Validate() []string {
	var errors []string
	if r.AgentID == "" {
		errors = append(errors, "agentID is required")
	}
	if r.Kind == "" {
		errors = append(errors, "taskType is required")
	} else if !domain.TaskKind(r.Kind).Valid() {
		errors = append(errors, "taskType is not a known task kind")
	}
	return errors
}

// Frame is one inbound console websocket message.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	FrameConsoleInput = "agent_console_input"
	FrameCreateTask   = "create_task"
)

type ConsoleInput struct {
	AgentID string `json:"agentID"`
	Input   string `json:"input"`
}

type ConsoleError struct {
	Message string `json:"message"`
}
