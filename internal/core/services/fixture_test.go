package services

import (
	"context"
	"sync"
	"testing"

	"github.com/hivectl/backend/internal/core/decoder"
	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/db"
	"github.com/hivectl/backend/internal/infrastructure/db/dbtest"
	"github.com/hivectl/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/require"
)

const testPrompt = "hivectl"

type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) Publish(_ context.Context, e domain.Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

func (b *recordingBus) ofType(t domain.EventType) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (b *recordingBus) console(agentID string) []domain.ConsoleOutput {
	var out []domain.ConsoleOutput
	for _, e := range b.ofType(domain.EventConsoleOutput) {
		line := e.Data.(domain.ConsoleOutput)
		if line.AgentID == agentID {
			out = append(out, line)
		}
	}
	return out
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}

type fixture struct {
	ctx        context.Context
	bus        *recordingBus
	logs       ports.LogService
	agents     ports.AgentService
	tasks      ports.TaskService
	taskRepo   ports.TaskRepository
	fleet      ports.FleetService
	dispatcher ports.CommandDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	log := logger.NewNop()
	bus := &recordingBus{}

	logs := NewLogService(LogServiceConfig{
		Repository: db.NewLogRepository(gdb, log),
		Bus:        bus,
		Logger:     log,
	})
	agents := NewAgentService(AgentServiceConfig{
		Repository:   db.NewAgentRepository(gdb, log),
		Bus:          bus,
		Logs:         logs,
		Logger:       log,
		DefaultDelay: 5,
		ServerPrompt: testPrompt,
	})
	taskRepo := db.NewTaskRepository(gdb, log)
	tasks := NewTaskService(TaskServiceConfig{
		Repository:   taskRepo,
		Agents:       agents,
		Decoder:      decoder.New(decoder.DefaultMaxKeyCodes),
		Bus:          bus,
		Logs:         logs,
		Logger:       log,
		ServerPrompt: testPrompt,
	})
	fleet := NewFleetService(FleetServiceConfig{
		Agents: agents,
		Tasks:  tasks,
		Logs:   logs,
		Logger: log,
	})
	disp := NewDispatcher(DispatcherConfig{
		Agents:       agents,
		Tasks:        tasks,
		Fleet:        fleet,
		Bus:          bus,
		Logger:       log,
		ServerPrompt: testPrompt,
	})

	return &fixture{
		ctx:        context.Background(),
		bus:        bus,
		logs:       logs,
		agents:     agents,
		tasks:      tasks,
		taskRepo:   taskRepo,
		fleet:      fleet,
		dispatcher: disp,
	}
}

func (f *fixture) register(t *testing.T, platform string, agentType domain.AgentType) *domain.Agent {
	t.Helper()
	agent, _, err := f.agents.Register(f.ctx, ports.RegisterAgentInput{
		Platform:         platform,
		Host:             "box",
		User:             "root",
		WorkingDirectory: "/",
		ProcessID:        42,
		AgentType:        agentType,
	})
	require.NoError(t, err)
	return agent
}

func (f *fixture) queue(t *testing.T, agentID string, kind domain.TaskKind, payload domain.JSONB) *domain.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(f.ctx, ports.CreateTaskInput{
		Owner:   "alice",
		AgentID: agentID,
		Kind:    kind,
		Payload: payload,
	})
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}
