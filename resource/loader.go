package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrUnknownScriptKind is returned when a cast entry names a script kind that
// no builder handles.
var ErrUnknownScriptKind = errors.New("resource: unknown script kind")

// Script kinds a cast member may be bound to.
const (
	KindTemplate  = "template"
	KindDetective = "detective"
	KindPartner   = "partner"
	KindReplicant = "replicant"
	KindInformant = "informant"
	KindJS        = "js"
)

var knownKinds = map[string]bool{
	KindTemplate:  true,
	KindDetective: true,
	KindPartner:   true,
	KindReplicant: true,
	KindInformant: true,
	KindJS:        true,
}

// ---- Data files ----

// CastMember is one entry of cast.json: an actor and the script that drives it.
type CastMember struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Script     string  `json:"script,omitempty"` // JS file relative to the data dir, kind "js" only
	Set        int     `json:"set"`
	Waypoint   *int    `json:"waypoint,omitempty"` // initial placement; nil keeps X/Y/Z
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Facing     int     `json:"facing"`
	Goal       int     `json:"goal"`
	Health     int     `json:"health"`
	Targetable bool    `json:"targetable"`
}

// WaypointDef is a named position inside a set.
type WaypointDef struct {
	ID  int     `json:"id"`
	Set int     `json:"set"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
}

// AnimationDef gives the frame count of one animation id.
type AnimationDef struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Frames int    `json:"frames"`
}

// ResourceLoader holds the content catalog read from the game data directory.
type ResourceLoader struct {
	DataPath string

	Cast       []*CastMember
	Waypoints  map[int]*WaypointDef
	Animations map[int]*AnimationDef
}

// NewLoader creates a ResourceLoader for the given data directory.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{
		DataPath:   dataPath,
		Waypoints:  make(map[int]*WaypointDef),
		Animations: make(map[int]*AnimationDef),
	}
}

// Load reads cast.json (required), waypoints.json and animations.json (both
// optional) and validates cross references.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		rl.loadWaypoints,
		rl.loadAnimations,
		rl.loadCast,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return rl.validate()
}

func (rl *ResourceLoader) path(file string) string {
	return filepath.Join(rl.DataPath, file)
}

func loadJSONArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return arr, nil
}

// loadOptionalArray is loadJSONArray that treats a missing file as empty.
func loadOptionalArray[T any](path string) ([]*T, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return loadJSONArray[T](path)
}

func (rl *ResourceLoader) loadCast() error {
	var err error
	rl.Cast, err = loadJSONArray[CastMember](rl.path("cast.json"))
	return err
}

func (rl *ResourceLoader) loadWaypoints() error {
	arr, err := loadOptionalArray[WaypointDef](rl.path("waypoints.json"))
	if err != nil {
		return err
	}
	for _, wp := range arr {
		if wp != nil {
			rl.Waypoints[wp.ID] = wp
		}
	}
	return nil
}

func (rl *ResourceLoader) loadAnimations() error {
	arr, err := loadOptionalArray[AnimationDef](rl.path("animations.json"))
	if err != nil {
		return err
	}
	for _, a := range arr {
		if a != nil {
			rl.Animations[a.ID] = a
		}
	}
	return nil
}

func (rl *ResourceLoader) validate() error {
	seen := make(map[int]bool, len(rl.Cast))
	cast := rl.Cast[:0]
	for _, m := range rl.Cast {
		if m == nil {
			continue
		}
		if !knownKinds[m.Kind] {
			return fmt.Errorf("resource: cast %d (%s): %w %q", m.ID, m.Name, ErrUnknownScriptKind, m.Kind)
		}
		if m.ID < 0 {
			return fmt.Errorf("resource: cast %q: negative id %d", m.Name, m.ID)
		}
		if seen[m.ID] {
			return fmt.Errorf("resource: cast %d: duplicate id", m.ID)
		}
		seen[m.ID] = true
		if m.Kind == KindJS && m.Script == "" {
			return fmt.Errorf("resource: cast %d: kind js needs a script file", m.ID)
		}
		if m.Waypoint != nil {
			if _, ok := rl.Waypoints[*m.Waypoint]; !ok {
				return fmt.Errorf("resource: cast %d: unknown waypoint %d", m.ID, *m.Waypoint)
			}
		}
		cast = append(cast, m)
	}
	rl.Cast = cast
	return nil
}

// ---- Lookups ----

// Waypoint returns the waypoint with the given id.
func (rl *ResourceLoader) Waypoint(id int) (*WaypointDef, bool) {
	wp, ok := rl.Waypoints[id]
	return wp, ok
}

// FrameCount returns the frame count of an animation, 0 when unknown.
func (rl *ResourceLoader) FrameCount(animation int) int {
	if a, ok := rl.Animations[animation]; ok {
		return a.Frames
	}
	return 0
}

// ScriptSource reads the JS file bound to a cast member.
func (rl *ResourceLoader) ScriptSource(m *CastMember) (string, error) {
	data, err := os.ReadFile(rl.path(m.Script))
	if err != nil {
		return "", fmt.Errorf("resource: read script %s: %w", m.Script, err)
	}
	return string(data), nil
}

// MaxActorID returns the highest cast id, or -1 when the cast is empty.
func (rl *ResourceLoader) MaxActorID() int {
	hi := -1
	for _, m := range rl.Cast {
		hi = max(hi, m.ID)
	}
	return hi
}
