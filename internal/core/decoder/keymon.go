package decoder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hivectl/backend/internal/domain"
)

func decodeKeymon(d *Decoder, platform domain.Platform, raw *RawResult) (string, domain.JSONB) {
	if len(raw.Keys) == 0 && len(raw.Streams) == 0 {
		return trimText(raw), nil
	}

	label := LinuxKeyLabel
	if platform == domain.PlatformWindows {
		label = WindowsKeyLabel
	}

	var b strings.Builder
	if len(raw.Keys) > 0 {
		for _, code := range d.truncate(raw.Keys) {
			b.WriteString(label(code))
		}
		b.WriteString("\n")
	}

	pids := make([]int, 0, len(raw.Streams))
	for pid := range raw.Streams {
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	for _, pid := range pids {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[PID %d]\n", pid)
		for _, c := range d.truncate(raw.Streams[pid]) {
			b.WriteString(StreamByteLabel(c))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (d *Decoder) truncate(codes []int) []int {
	if len(codes) > d.maxKeyCodes {
		return codes[:d.maxKeyCodes]
	}
	return codes
}

// StreamByteLabel renders one byte of a per-process input stream.
func StreamByteLabel(c int) string {
	switch {
	case c == '\r' || c == '\n':
		return "[ENTER]"
	case c == 0x7F:
		return "[BACKSPACE]"
	case c >= 0x20 && c <= 0x7E:
		return string(rune(c))
	}
	return fmt.Sprintf("%02x", c&0xFF)
}
