package domain

import "strings"

// TaskKind selects how a task payload is interpreted by the agent and how its
// result is rendered.
type TaskKind string

const (
	KindSystem    TaskKind = "system"
	KindCd        TaskKind = "cd"
	KindDelay     TaskKind = "delay"
	KindUpload    TaskKind = "upload"
	KindDownload  TaskKind = "download"
	KindKeymon    TaskKind = "keymon"
	KindTunnel    TaskKind = "tunnel"
	KindBridge    TaskKind = "bridge"
	KindWebload   TaskKind = "webload"
	KindClipRead  TaskKind = "clipread"
	KindClipWrite TaskKind = "clipwrite"
	KindAbort     TaskKind = "abort"
	KindKill      TaskKind = "kill"
	KindLs        TaskKind = "ls"
	KindDel       TaskKind = "del"
	KindCp        TaskKind = "cp"
	KindIPInfo    TaskKind = "ipinfo"
	KindWriteDir  TaskKind = "writedir"
)

var taskKinds = map[TaskKind]struct{}{
	KindSystem: {}, KindCd: {}, KindDelay: {}, KindUpload: {}, KindDownload: {},
	KindKeymon: {}, KindTunnel: {}, KindBridge: {}, KindWebload: {}, KindClipRead: {},
	KindClipWrite: {}, KindAbort: {}, KindKill: {}, KindLs: {}, KindDel: {},
	KindCp: {}, KindIPInfo: {}, KindWriteDir: {},
}

func (k TaskKind) Valid() bool {
	_, ok := taskKinds[k]
	return ok
}

// CompletionHook names a side effect applied to the owning agent when a task
// completes. Hooks live in an in-memory side table keyed by task id and are
// lost on restart.
type CompletionHook int

const (
	HookNone CompletionHook = iota
	HookApplyDelay
	HookApplyWorkingDirectory
)

func ParsePlatform(s string) Platform {
	if strings.Contains(strings.ToLower(s), "windows") {
		return PlatformWindows
	}
	return PlatformLinux
}
