package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hivectl/backend/internal/domain"
)

// helpTable lists the commands every agent understands.
var helpTable = map[string]string{
	"abort":                                  "Task agent to quit",
	"bridge <host1>:<port1> <host2>:<port2>": "Start a TCP bridge b/w 2 servers",
	"cd <dir>":                               "Change working directory",
	"delay <secs>":                           "Update agent callback delay",
	"delete agent":                           "Delete the agent and its tasks",
	"delete task <id>":                       "Delete a task",
	"download <file>":                        "Download a file from agent",
	"freeze":                                 "Freeze the agent (don't send tasks)",
	"help/?":                                 "You are looking at it :)",
	"hive <cmd>":                             "Task all agents with the given command",
	"kill <id>":                              "Kill a running task",
	"system <cmd>":                           "Run a shell command",
	"tasks":                                  "List running tasks",
	"tunnel <lhost>:<lport> <rhost>:<rport>": "Start a TCP tunnel",
	"unfreeze":                               "Unfreeze the agent",
	"webload <url> <file>":                   "Download a file from a URL",
	"writedir <dir>":                         "Change agent's write directory",
}

// nativeHelpTable lists commands only native agents implement.
var nativeHelpTable = map[string]string{
	"clipread":         "Get text from clipboard",
	"clipwrite <text>": "Write text to clipboard",
	"keymon <secs>":    "Run a keylogger for given seconds",
}

// HelpPage renders the command table for an agent type as a sorted two
// column page.
func HelpPage(agentType domain.AgentType) string {
	entries := make(map[string]string, len(helpTable)+len(nativeHelpTable))
	for k, v := range helpTable {
		entries[k] = v
	}
	if agentType == domain.AgentTypeNative {
		for k, v := range nativeHelpTable {
			entries[k] = v
		}
	}

	cmds := make([]string, 0, len(entries))
	width := 0
	for cmd := range entries {
		cmds = append(cmds, cmd)
		if len(cmd) > width {
			width = len(cmd)
		}
	}
	sort.Strings(cmds)

	var b strings.Builder
	fmt.Fprintf(&b, "  %-*s  %s\n", width, "COMMAND", "FUNCTION")
	fmt.Fprintf(&b, "  %s  %s\n", strings.Repeat("-", width), strings.Repeat("-", 20))
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, cmd, entries[cmd])
	}
	return b.String()
}
