package services

import (
	"context"

	"github.com/hivectl/backend/internal/core/ports"
	"github.com/hivectl/backend/internal/domain"
)

// publishConsole appends a line to an agent's console transcript on every
// operator session.
func publishConsole(ctx context.Context, bus ports.EventBus, agentID, prompt, msg string) {
	bus.Publish(ctx, domain.NewEvent(domain.EventConsoleOutput, domain.ConsoleOutput{
		AgentID: agentID,
		Prompt:  prompt,
		Message: msg,
	}))
}
