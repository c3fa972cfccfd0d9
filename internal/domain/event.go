package domain

// EventType names a message broadcast to operator sessions.
type EventType string

const (
	EventNewAgent      EventType = "new_agent"
	EventUpdateAgent   EventType = "update_agent"
	EventAgentDeleted  EventType = "agent_deleted"
	EventNewTask       EventType = "new_task"
	EventUpdateTask    EventType = "update_task"
	EventTaskDeleted   EventType = "task_deleted"
	EventConsoleOutput EventType = "agent_console_output"
	EventNewLog        EventType = "new_log"
	EventConsoleError  EventType = "console_error"
)

// Audience restricts which sessions receive an event.
type Audience int

const (
	AudienceAll Audience = iota
	AudienceAdmins
)

type Event struct {
	Type     EventType   `json:"event"`
	Data     interface{} `json:"data"`
	Audience Audience    `json:"-"`
}

func NewEvent(t EventType, data interface{}) Event {
	return Event{Type: t, Data: data}
}

// ConsoleOutput is one line of an agent console transcript.
type ConsoleOutput struct {
	AgentID string `json:"agentID"`
	Prompt  string `json:"prompt,omitempty"`
	Message string `json:"msg"`
}

type AgentDeleted struct {
	AgentID string `json:"agentID"`
	User    string `json:"user"`
}

type TaskDeleted struct {
	AgentID string `json:"agentID"`
	TaskID  string `json:"taskID"`
	User    string `json:"user"`
}
