package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"
)

// ==================== ENUMS ====================

// AgentType tells which agent build is on the other end. Only native agents
// ship the keylogger and clipboard modules.
type AgentType int

const (
	AgentTypeNative AgentType = 0
	AgentTypeScript AgentType = 1
)

type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

type LogLevel int

const (
	LogLevelStatus  LogLevel = 0
	LogLevelWarning LogLevel = 1
	LogLevelError   LogLevel = 2
)

// SystemOwner owns tasks that were not created by a named operator.
const SystemOwner = "system"

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("failed to scan JSONB: invalid type")
	}
	return json.Unmarshal(raw, j)
}

// String returns the value under key when it is a string.
func (j JSONB) String(key string) (string, bool) {
	v, ok := j[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the value under key as an int. JSON numbers come back from the
// store as float64, so both forms are accepted.
func (j JSONB) Int(key string) (int, bool) {
	switch v := j[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	}
	return 0, false
}

// ==================== ENTITIES ====================

type Agent struct {
	ID               string    `gorm:"primaryKey;size:32" json:"uid"`
	CallbackDelay    int       `gorm:"not null;default:5" json:"delay"`
	Platform         string    `gorm:"size:255;not null" json:"os"`
	Host             string    `gorm:"size:255;not null" json:"host"`
	User             string    `gorm:"size:255;not null" json:"user"`
	WorkingDirectory string    `gorm:"type:text;not null" json:"cwd"`
	ProcessID        int       `gorm:"not null" json:"pid"`
	AgentType        AgentType `gorm:"not null;default:0" json:"agentType"`
	RegisteredAt     time.Time `gorm:"index;not null" json:"dateCreated"`
	LastSeenAt       time.Time `gorm:"not null" json:"lastSeen"`
	Frozen           bool      `gorm:"not null;default:false" json:"frozen"`
	Aborted          bool      `gorm:"not null;default:false" json:"aborted"`
}

// OS classifies the free-form platform string reported at registration.
func (a *Agent) OS() Platform {
	return ParsePlatform(a.Platform)
}

// Prompt is the console label used for lines produced by the agent.
func (a *Agent) Prompt() string {
	return a.User + "@" + a.Host
}

// AgentConfig is the only part of an Agent that is sent back to the agent.
type AgentConfig struct {
	ID    string `json:"uid"`
	Delay int    `json:"delay"`
}

type Task struct {
	ID          string     `gorm:"primaryKey;size:32" json:"uid"`
	Owner       string     `gorm:"size:255;not null" json:"owner"`
	AgentID     string     `gorm:"size:32;not null;index" json:"agentID"`
	Kind        TaskKind   `gorm:"size:20;not null" json:"taskType"`
	Payload     JSONB      `gorm:"type:jsonb" json:"data"`
	CreatedAt   time.Time  `gorm:"index;not null" json:"dateCreated"`
	Received    bool       `gorm:"not null;default:false;index" json:"received"`
	ReceivedAt  *time.Time `json:"dateReceived,omitempty"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"dateCompleted,omitempty"`
	Successful  bool       `gorm:"not null;default:false" json:"successful"`
	Result      string     `gorm:"type:text" json:"result"`
}

// Running reports whether the agent holds the task and has not answered yet.
func (t *Task) Running() bool {
	return t.Received && !t.Completed
}

// PendingTask is the projection of a Task an agent receives on poll.
type PendingTask struct {
	ID      string   `json:"uid"`
	Kind    TaskKind `json:"taskType"`
	Payload JSONB    `json:"data"`
}

func (t *Task) Pending() PendingTask {
	return PendingTask{ID: t.ID, Kind: t.Kind, Payload: t.Payload}
}

type LogEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"date"`
	Level     LogLevel  `gorm:"not null;index" json:"logType"`
	Message   string    `gorm:"type:text;not null" json:"message"`
}

func (LogEntry) TableName() string {
	return "event_logs"
}
