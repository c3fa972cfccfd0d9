package decoder

import (
	"strings"

	"github.com/hivectl/backend/internal/domain"
)

const DefaultMaxKeyCodes = 50000

// Output is a decoded result ready to be stored on the task.
type Output struct {
	Display    string
	Successful bool
	// Payload holds members to merge into the task payload, if any.
	Payload domain.JSONB
}

type decodeFunc func(d *Decoder, platform domain.Platform, raw *RawResult) (string, domain.JSONB)

// Decoder renders raw task results. It holds no mutable state and is safe for
// concurrent use.
type Decoder struct {
	maxKeyCodes int
	handlers    map[domain.TaskKind]decodeFunc
}

func New(maxKeyCodes int) *Decoder {
	if maxKeyCodes <= 0 {
		maxKeyCodes = DefaultMaxKeyCodes
	}
	return &Decoder{
		maxKeyCodes: maxKeyCodes,
		handlers: map[domain.TaskKind]decodeFunc{
			domain.KindKeymon: decodeKeymon,
			domain.KindCd:     decodeCd,
			domain.KindLs:     decodeListing,
			domain.KindIPInfo: decodeIPInfo,
			domain.KindDel:    decodeDeleted,
			domain.KindCp:     decodeCopied,
		},
	}
}

// Decode renders raw for a task of the given kind run on platform. A
// non-empty raw result is never dropped: when the kind handler produces
// nothing the raw text is used as is.
func (d *Decoder) Decode(kind domain.TaskKind, platform domain.Platform, raw *RawResult) Output {
	out := Output{Successful: raw.Successful}

	if h, ok := d.handlers[kind]; ok {
		out.Display, out.Payload = h(d, platform, raw)
	} else {
		out.Display = trimText(raw)
	}

	if out.Display == "" {
		out.Display = raw.Text()
	}
	return out
}

func trimText(raw *RawResult) string {
	return strings.TrimRight(raw.Text(), "\r\n")
}

func decodeCd(_ *Decoder, _ domain.Platform, raw *RawResult) (string, domain.JSONB) {
	dir := trimText(raw)
	if !raw.Successful || dir == "" {
		return dir, nil
	}
	return dir, domain.JSONB{"dir": dir}
}
