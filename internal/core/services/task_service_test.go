package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(taskID string, successful interface{}, res interface{}) json.RawMessage {
	body, _ := json.Marshal(map[string]interface{}{
		"uid":        taskID,
		"successful": successful,
		"result":     res,
	})
	return body
}

func TestWhoamiRoundTrip(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)

	tasks, err := f.dispatcher.Dispatch(f.ctx, "alice", agent.ID, "system whoami")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.KindSystem, tasks[0].Kind)
	assert.Equal(t, domain.JSONB{"cmd": "whoami"}, tasks[0].Payload)

	pending, err := f.tasks.GetPending(f.ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	delivered, err := f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, tasks[0].ID, delivered[0].ID)
	assert.Equal(t, "whoami", delivered[0].Payload["cmd"])

	stored, err := f.tasks.GetTask(f.ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.Received)
	assert.False(t, stored.Completed)

	accepted, err := f.fleet.SubmitResults(f.ctx, agent.ID, []json.RawMessage{result(stored.ID, 1, "root")})
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)

	stored, err = f.tasks.GetTask(f.ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.True(t, stored.Successful)
	assert.Equal(t, "root", stored.Result)

	lines := f.bus.console(agent.ID)
	assert.Equal(t, "root", lines[len(lines)-1].Message)
	assert.Equal(t, "root@box", lines[len(lines)-1].Prompt)
}

func TestPollFrozenAgentReturnsNothing(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	for i := 0; i < 3; i++ {
		f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})
	}
	_, err := f.agents.Freeze(f.ctx, agent.ID, "alice")
	require.NoError(t, err)

	delivered, err := f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)
	assert.Empty(t, delivered)

	_, err = f.agents.Unfreeze(f.ctx, agent.ID, "alice")
	require.NoError(t, err)
	delivered, err = f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)
	assert.Len(t, delivered, 3)
}

func TestPollUnknownAgent(t *testing.T) {
	f := newFixture(t)
	_, err := f.fleet.Poll(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.fleet.Ping(f.ctx, "nope"), ErrNotFound)
}

func TestCreateTaskAbortedAgent(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)

	f.queue(t, agent.ID, domain.KindAbort, nil)
	stored, err := f.agents.Get(f.ctx, agent.ID)
	require.NoError(t, err)
	assert.True(t, stored.Aborted)

	before, err := f.taskRepo.GetAll(f.ctx)
	require.NoError(t, err)
	f.bus.reset()

	task, err := f.tasks.CreateTask(f.ctx, ports.CreateTaskInput{
		Owner: "alice", AgentID: agent.ID, Kind: domain.KindSystem, Payload: domain.JSONB{"cmd": "id"},
	})
	require.NoError(t, err)
	assert.Nil(t, task)

	after, err := f.taskRepo.GetAll(f.ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Empty(t, f.bus.ofType(domain.EventNewTask))
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)

	_, err := f.tasks.CreateTask(f.ctx, ports.CreateTaskInput{AgentID: agent.ID, Kind: "format-disk"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.tasks.CreateTask(f.ctx, ports.CreateTaskInput{AgentID: "nope", Kind: domain.KindSystem})
	assert.ErrorIs(t, err, ErrNotFound)

	task, err := f.tasks.CreateTask(f.ctx, ports.CreateTaskInput{AgentID: agent.ID, Kind: domain.KindClipRead})
	require.NoError(t, err)
	assert.Equal(t, domain.SystemOwner, task.Owner)
	assert.NotNil(t, task.Payload)
}

func TestMarkReceivedIdempotent(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	task := f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})
	f.bus.reset()

	got, delivered, err := f.tasks.MarkReceived(f.ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, delivered)
	require.NotNil(t, got)
	first := *got.ReceivedAt

	got, delivered, err = f.tasks.MarkReceived(f.ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.True(t, got.ReceivedAt.Equal(first))
	assert.Len(t, f.bus.ofType(domain.EventUpdateTask), 1)

	got, delivered, err = f.tasks.MarkReceived(f.ctx, "vanished")
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Nil(t, got)
}

func TestSetResultTwiceFails(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	task := f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})
	_, err := f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)

	_, err = f.tasks.SetResult(f.ctx, agent.ID, result(task.ID, true, "uid=0"))
	require.NoError(t, err)

	_, err = f.tasks.SetResult(f.ctx, agent.ID, result(task.ID, false, "tampered"))
	assert.ErrorIs(t, err, ErrInvalidTask)

	stored, err := f.tasks.GetTask(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "uid=0", stored.Result)
	assert.True(t, stored.Successful)
}

func TestSetResultRejects(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	other := f.register(t, "linux", domain.AgentTypeNative)
	task := f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})

	_, err := f.tasks.SetResult(f.ctx, agent.ID, result(task.ID, true, "early"))
	assert.ErrorIs(t, err, ErrInvalidTask, "not delivered yet")

	_, err = f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)

	_, err = f.tasks.SetResult(f.ctx, other.ID, result(task.ID, true, "foreign"))
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = f.tasks.SetResult(f.ctx, agent.ID, result("missing", true, "x"))
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = f.tasks.SetResult(f.ctx, agent.ID, json.RawMessage(`"not an object"`))
	assert.ErrorIs(t, err, ErrInvalidTask)
}

func TestSubmitResultsKeepsGoingOnFailure(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	a := f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})
	b := f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "pwd"})
	_, err := f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)
	f.bus.reset()

	accepted, err := f.fleet.SubmitResults(f.ctx, agent.ID, []json.RawMessage{
		result(a.ID, true, "uid=0"),
		result("bogus", true, "x"),
		result(b.ID, true, "/root\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Len(t, f.bus.ofType(domain.EventNewLog), 1)

	stored, err := f.tasks.GetTask(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "/root", stored.Result)
}

func TestCompletionHooks(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)

	_, err := f.dispatcher.Dispatch(f.ctx, "alice", agent.ID, "delay 30")
	require.NoError(t, err)
	_, err = f.dispatcher.Dispatch(f.ctx, "alice", agent.ID, "cd /tmp")
	require.NoError(t, err)

	delivered, err := f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, delivered, 2)

	var results []json.RawMessage
	for _, p := range delivered {
		res := ""
		if p.Kind == domain.KindCd {
			res = "/tmp\n"
		}
		results = append(results, result(p.ID, true, res))
	}
	accepted, err := f.fleet.SubmitResults(f.ctx, agent.ID, results)
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)

	stored, err := f.agents.Get(f.ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.CallbackDelay)
	assert.Equal(t, "/tmp", stored.WorkingDirectory)

	impl := f.tasks.(*taskService)
	assert.Zero(t, impl.hooks.len())
}

func TestCompletionHookSkippedOnFailure(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)

	_, err := f.dispatcher.Dispatch(f.ctx, "alice", agent.ID, "cd /nope")
	require.NoError(t, err)
	delivered, err := f.fleet.Poll(f.ctx, agent.ID)
	require.NoError(t, err)
	require.Len(t, delivered, 1)

	_, err = f.tasks.SetResult(f.ctx, agent.ID, result(delivered[0].ID, false, "no such directory"))
	require.NoError(t, err)

	stored, err := f.agents.Get(f.ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "/", stored.WorkingDirectory)
}

func TestGetAllGroupedByAgent(t *testing.T) {
	f := newFixture(t)
	busy := f.register(t, "linux", domain.AgentTypeNative)
	idle := f.register(t, "linux", domain.AgentTypeNative)
	first := f.queue(t, busy.ID, domain.KindSystem, domain.JSONB{"cmd": "a"})
	second := f.queue(t, busy.ID, domain.KindSystem, domain.JSONB{"cmd": "b"})

	grouped, err := f.tasks.GetAllGroupedByAgent(f.ctx)
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[busy.ID], 2)
	assert.Equal(t, second.ID, grouped[busy.ID][0].ID)
	assert.Equal(t, first.ID, grouped[busy.ID][1].ID)
	assert.NotNil(t, grouped[idle.ID])
	assert.Empty(t, grouped[idle.ID])
}

func TestDeleteTasks(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	task := f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})

	require.NoError(t, f.tasks.DeleteTask(f.ctx, agent.ID, task.ID, "alice"))
	assert.Len(t, f.bus.ofType(domain.EventTaskDeleted), 1)
	assert.ErrorIs(t, f.tasks.DeleteTask(f.ctx, agent.ID, task.ID, "alice"), ErrNotFound)

	f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": "id"})
	require.NoError(t, f.fleet.RemoveAgent(f.ctx, agent.ID, "alice"))
	all, err := f.taskRepo.GetAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConcurrentPollsDeliverOnce(t *testing.T) {
	f := newFixture(t)
	agent := f.register(t, "linux", domain.AgentTypeNative)
	const n = 20
	for i := 0; i < n; i++ {
		f.queue(t, agent.ID, domain.KindSystem, domain.JSONB{"cmd": fmt.Sprintf("echo %d", i)})
	}

	var (
		mu   sync.Mutex
		seen = map[string]int{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.fleet.Poll(f.ctx, agent.ID)
			assert.NoError(t, err)
			mu.Lock()
			for _, p := range got {
				seen[p.ID]++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "task %s delivered more than once", id)
	}

	var accepted int
	var amu sync.Mutex
	for id := range seen {
		for attempt := 0; attempt < 2; attempt++ {
			wg.Add(1)
			go func(id string, attempt int) {
				defer wg.Done()
				if _, err := f.tasks.SetResult(f.ctx, agent.ID, result(id, true, fmt.Sprintf("run %d", attempt))); err == nil {
					amu.Lock()
					accepted++
					amu.Unlock()
				}
			}(id, attempt)
		}
	}
	wg.Wait()
	assert.Equal(t, n, accepted)

	all, err := f.taskRepo.GetAll(f.ctx)
	require.NoError(t, err)
	for _, task := range all {
		assert.True(t, task.Received)
		assert.True(t, task.Completed)
	}
}
