package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBRoundTripThroughStore(t *testing.T) {
	in := JSONB{"delay": 30, "dir": "/tmp"}
	v, err := in.Value()
	require.NoError(t, err)

	var out JSONB
	require.NoError(t, out.Scan(v))
	delay, ok := out.Int("delay")
	require.True(t, ok)
	assert.Equal(t, 30, delay)
	dir, ok := out.String("dir")
	require.True(t, ok)
	assert.Equal(t, "/tmp", dir)

	var fromText JSONB
	require.NoError(t, fromText.Scan(`{"cmd":"id"}`))
	cmd, _ := fromText.String("cmd")
	assert.Equal(t, "id", cmd)
}

func TestJSONBIntRejectsFractions(t *testing.T) {
	var j JSONB
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"x"}`), &j))
	_, ok := j.Int("a")
	assert.False(t, ok)
	_, ok = j.Int("b")
	assert.False(t, ok)
	_, ok = j.Int("missing")
	assert.False(t, ok)
}

func TestJSONBScanNil(t *testing.T) {
	j := JSONB{"a": 1}
	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)
	assert.Error(t, j.Scan(42))
}

func TestTaskKindValid(t *testing.T) {
	assert.True(t, KindSystem.Valid())
	assert.True(t, KindIPInfo.Valid())
	assert.False(t, TaskKind("format-c").Valid())
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformWindows, ParsePlatform("Windows 10 Pro"))
	assert.Equal(t, PlatformLinux, ParsePlatform("Linux 6.1 x86_64"))
	assert.Equal(t, PlatformLinux, ParsePlatform("unknown"))
}

func TestTaskProjection(t *testing.T) {
	task := Task{ID: "t1", Owner: "op", Kind: KindSystem, Payload: JSONB{"cmd": "id"}, Received: true}
	assert.True(t, task.Running())
	p := task.Pending()
	assert.Equal(t, PendingTask{ID: "t1", Kind: KindSystem, Payload: JSONB{"cmd": "id"}}, p)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uid":"t1","taskType":"system","data":{"cmd":"id"}}`, string(raw))
}
