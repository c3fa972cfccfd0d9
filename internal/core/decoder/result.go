package decoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMissingTaskID = errors.New("result has no task id")
	ErrMalformed     = errors.New("malformed result")
)

// keyboardMembers name the main keyboard capture, preferred first.
var keyboardMembers = []string{"main-kbd", "keys"}

// RawResult is one entry of an agent result submission.
type RawResult struct {
	TaskID     string
	Successful bool
	// Result is the untouched "result" member. It is usually a JSON string but
	// some kinds send numbers, arrays or objects.
	Result json.RawMessage
	// Keys holds main keyboard codes for keymon results.
	Keys []int
	// Streams holds per-process byte streams keyed by process id.
	Streams map[int][]int
}

// ParseRawResult reads a submitted result object. "successful" may be a
// boolean or a 0/1 number. Keymon results carry the main keyboard under
// "main-kbd" and members whose name is a process id carry byte streams.
func ParseRawResult(data []byte) (*RawResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	raw := &RawResult{}
	if v, ok := fields["uid"]; ok {
		if err := json.Unmarshal(v, &raw.TaskID); err != nil {
			return nil, fmt.Errorf("%w: uid: %v", ErrMalformed, err)
		}
	}
	if raw.TaskID == "" {
		return nil, ErrMissingTaskID
	}

	if v, ok := fields["successful"]; ok {
		s, err := parseFlag(v)
		if err != nil {
			return nil, err
		}
		raw.Successful = s
	}
	if v, ok := fields["result"]; ok && !isNull(v) {
		raw.Result = v
	}
	for _, name := range keyboardMembers {
		v, ok := fields[name]
		if !ok || isNull(v) {
			continue
		}
		if err := json.Unmarshal(v, &raw.Keys); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
		}
		break
	}

	for name, v := range fields {
		pid, ok := processID(name)
		if !ok {
			continue
		}
		var stream []int
		if err := json.Unmarshal(v, &stream); err != nil {
			return nil, fmt.Errorf("%w: stream %s: %v", ErrMalformed, name, err)
		}
		if raw.Streams == nil {
			raw.Streams = make(map[int][]int)
		}
		raw.Streams[pid] = stream
	}
	return raw, nil
}

// Text is the result member as display text: JSON strings are unquoted,
// other values keep their JSON form.
func (r *RawResult) Text() string {
	if len(r.Result) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Result, &s); err == nil {
		return s
	}
	return string(r.Result)
}

func parseFlag(v json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b, nil
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("%w: successful must be a boolean or number", ErrMalformed)
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func processID(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	pid, err := strconv.Atoi(name)
	return pid, err == nil
}
