package services

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these to responses; specific errors below
// wrap exactly one of them.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidTask  = errors.New("invalid task")
)

// Agent errors
var (
	ErrAgentNotFound       = fmt.Errorf("agent: %w", ErrNotFound)
	ErrAgentAlreadyFrozen  = fmt.Errorf("agent: already frozen: %w", ErrInvalidState)
	ErrAgentNotFrozen      = fmt.Errorf("agent: not frozen: %w", ErrInvalidState)
	ErrAgentInvalidProfile = fmt.Errorf("agent: invalid registration: %w", ErrValidation)
)

// Task errors
var (
	ErrTaskNotFound     = fmt.Errorf("task: %w", ErrNotFound)
	ErrTaskInvalidKind  = fmt.Errorf("task: unknown kind: %w", ErrValidation)
	ErrTaskUnknown      = fmt.Errorf("task: no such task: %w", ErrInvalidTask)
	ErrTaskNotRunning   = fmt.Errorf("task: not running: %w", ErrInvalidTask)
	ErrTaskResultFormat = fmt.Errorf("task: malformed result: %w", ErrInvalidTask)
)
