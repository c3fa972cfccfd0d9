package services

import (
	"sync"

	"github.com/hivectl/backend/internal/domain"
)

// hookFunc applies a completed task to its agent and reports whether the
// agent changed.
type hookFunc func(agent *domain.Agent, task *domain.Task) bool

var completionHooks = map[domain.CompletionHook]hookFunc{
	domain.HookApplyDelay: func(agent *domain.Agent, task *domain.Task) bool {
		delay, ok := task.Payload.Int("delay")
		if !task.Successful || !ok || delay < 0 {
			return false
		}
		agent.CallbackDelay = delay
		return true
	},
	domain.HookApplyWorkingDirectory: func(agent *domain.Agent, task *domain.Task) bool {
		dir, ok := task.Payload.String("dir")
		if !task.Successful || !ok || dir == "" {
			return false
		}
		agent.WorkingDirectory = dir
		return true
	},
}

// completionTable holds the pending completion hook of each task. It lives
// only in memory, so hooks registered before a restart never fire.
type completionTable struct {
	mu    sync.Mutex
	hooks map[string]domain.CompletionHook
}

func newCompletionTable() *completionTable {
	return &completionTable{hooks: make(map[string]domain.CompletionHook)}
}

func (t *completionTable) put(taskID string, hook domain.CompletionHook) {
	if hook == domain.HookNone {
		return
	}
	t.mu.Lock()
	t.hooks[taskID] = hook
	t.mu.Unlock()
}

// take removes and returns the hook of a task. At most one caller ever gets
// it.
func (t *completionTable) take(taskID string) (domain.CompletionHook, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	hook, ok := t.hooks[taskID]
	if ok {
		delete(t.hooks, taskID)
	}
	return hook, ok
}

func (t *completionTable) drop(taskIDs ...string) {
	t.mu.Lock()
	for _, id := range taskIDs {
		delete(t.hooks, id)
	}
	t.mu.Unlock()
}

func (t *completionTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.hooks)
}
