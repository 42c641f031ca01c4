package resource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeJSON writes v as JSON to dir/filename.
func writeJSON(t *testing.T, dir, filename string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

func setupDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeJSON(t, dir, "waypoints.json", []map[string]interface{}{
		{"id": 1, "set": 10, "x": 1.5, "y": 0, "z": -3},
		{"id": 2, "set": 10, "x": 4, "y": 0, "z": 2},
	})
	writeJSON(t, dir, "animations.json", []map[string]interface{}{
		{"id": 19, "name": "detective idle", "frames": 16},
		{"id": 30, "name": "partner walk", "frames": 8},
	})
	writeJSON(t, dir, "cast.json", []interface{}{
		map[string]interface{}{"id": 0, "name": "Detective", "kind": "detective", "set": 10, "waypoint": 1, "health": 50, "targetable": true},
		map[string]interface{}{"id": 1, "name": "Partner", "kind": "partner", "set": 10, "goal": 100},
		nil,
		map[string]interface{}{"id": 4, "name": "Bartender", "kind": "js", "script": "bartender.js"},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bartender.js"), []byte(`function update() { return false; }`), 0644))
	return dir
}

func TestLoad_Catalog(t *testing.T) {
	rl := NewLoader(setupDataDir(t))
	require.NoError(t, rl.Load())

	require.Len(t, rl.Cast, 3, "null entries are skipped")
	assert.Equal(t, "Detective", rl.Cast[0].Name)
	require.NotNil(t, rl.Cast[0].Waypoint)
	assert.Equal(t, 1, *rl.Cast[0].Waypoint)
	assert.Nil(t, rl.Cast[1].Waypoint)
	assert.Equal(t, 4, rl.MaxActorID())

	wp, ok := rl.Waypoint(2)
	require.True(t, ok)
	assert.Equal(t, 10, wp.Set)
	assert.Equal(t, 4.0, wp.X)
	_, ok = rl.Waypoint(99)
	assert.False(t, ok)

	assert.Equal(t, 16, rl.FrameCount(19))
	assert.Equal(t, 0, rl.FrameCount(999))

	src, err := rl.ScriptSource(rl.Cast[2])
	require.NoError(t, err)
	assert.Contains(t, src, "function update")
}

func TestLoad_OptionalFilesMissing(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "cast.json", []map[string]interface{}{
		{"id": 0, "name": "Solo", "kind": "template"},
	})
	rl := NewLoader(dir)
	require.NoError(t, rl.Load())
	assert.Empty(t, rl.Waypoints)
	assert.Empty(t, rl.Animations)
}

func TestLoad_MissingCast(t *testing.T) {
	err := NewLoader(t.TempDir()).Load()
	assert.ErrorContains(t, err, "cast.json")
}

func TestLoad_UnknownKind(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, dir, "cast.json", []map[string]interface{}{
		{"id": 0, "name": "Ghost", "kind": "poltergeist"},
	})
	err := NewLoader(dir).Load()
	assert.ErrorIs(t, err, ErrUnknownScriptKind)
}

func TestLoad_InvalidEntries(t *testing.T) {
	cases := map[string][]map[string]interface{}{
		"duplicate id":      {{"id": 1, "kind": "template"}, {"id": 1, "kind": "partner"}},
		"negative id":       {{"id": -2, "kind": "template"}},
		"js without script": {{"id": 0, "kind": "js"}},
		"unknown waypoint":  {{"id": 0, "kind": "template", "waypoint": 7}},
	}
	for name, cast := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeJSON(t, dir, "cast.json", cast)
			assert.Error(t, NewLoader(dir).Load())
		})
	}
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cast.json"), []byte("{not json"), 0644))
	err := NewLoader(dir).Load()
	assert.ErrorContains(t, err, "parse")
}
