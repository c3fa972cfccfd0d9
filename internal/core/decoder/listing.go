package decoder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hivectl/backend/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const EmptyDirectory = "Empty directory!"

type dirEntry struct {
	dir  bool
	size int64
	name string
}

// jsonBody returns the JSON document carried by the result, whether it was
// sent inline or as an encoded string.
func jsonBody(raw *RawResult) []byte {
	var s string
	if err := json.Unmarshal(raw.Result, &s); err == nil {
		return []byte(s)
	}
	return raw.Result
}

func decodeListing(_ *Decoder, _ domain.Platform, raw *RawResult) (string, domain.JSONB) {
	if !raw.Successful || len(raw.Result) == 0 {
		return trimText(raw), nil
	}
	var triples [][]interface{}
	if err := json.Unmarshal(jsonBody(raw), &triples); err != nil {
		return "", nil
	}

	entries := make([]dirEntry, 0, len(triples))
	for _, t := range triples {
		e, ok := parseEntry(t)
		if !ok {
			return "", nil
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return EmptyDirectory, nil
	}

	col := collate.New(language.English, collate.Loose)
	sort.SliceStable(entries, func(i, j int) bool {
		return col.CompareString(entries[i].name, entries[j].name) < 0
	})

	width := 4
	for _, e := range entries {
		if n := len(strconv.FormatInt(e.size, 10)); n > width {
			width = n
		}
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		kind := "F"
		if e.dir {
			kind = "D"
		}
		lines = append(lines, fmt.Sprintf("%*d | %s | %s", width, e.size, kind, e.name))
	}
	return strings.Join(lines, "\n"), nil
}

func parseEntry(t []interface{}) (dirEntry, bool) {
	if len(t) != 3 {
		return dirEntry{}, false
	}
	var e dirEntry
	switch v := t[0].(type) {
	case bool:
		e.dir = v
	case float64:
		e.dir = v != 0
	default:
		return dirEntry{}, false
	}
	size, ok := t[1].(float64)
	if !ok {
		return dirEntry{}, false
	}
	e.size = int64(size)
	if e.name, ok = t[2].(string); !ok {
		return dirEntry{}, false
	}
	return e, true
}

func decodeIPInfo(_ *Decoder, _ domain.Platform, raw *RawResult) (string, domain.JSONB) {
	if !raw.Successful || len(raw.Result) == 0 {
		return trimText(raw), nil
	}
	var v interface{}
	if err := json.Unmarshal(jsonBody(raw), &v); err != nil {
		return "", nil
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", nil
	}
	return string(pretty), nil
}

func decodeDeleted(_ *Decoder, _ domain.Platform, raw *RawResult) (string, domain.JSONB) {
	if n, ok := count(raw); ok {
		return fmt.Sprintf("%d file(s) deleted", n), nil
	}
	return trimText(raw), nil
}

func decodeCopied(_ *Decoder, _ domain.Platform, raw *RawResult) (string, domain.JSONB) {
	if n, ok := count(raw); ok {
		return fmt.Sprintf("%d byte(s) copied", n), nil
	}
	return trimText(raw), nil
}

func count(raw *RawResult) (int64, bool) {
	if !raw.Successful {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw.Text()), 10, 64)
	return n, err == nil
}
