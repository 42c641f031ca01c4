package world

import (
	"github.com/kasuganosora/actorai/game/ai"
	"go.uber.org/zap"
)

// ActorSnapshot is the persisted form of one actor, including its script's
// animation cursor.
type ActorSnapshot struct {
	ID           ai.ActorID           `json:"id"`
	Goal         int                  `json:"goal"`
	Set          int                  `json:"set"`
	X            float64              `json:"x"`
	Y            float64              `json:"y"`
	Z            float64              `json:"z"`
	Facing       int                  `json:"facing"`
	Health       int                  `json:"health"`
	MaxHealth    int                  `json:"max_health"`
	Targetable   bool                 `json:"targetable"`
	Invisible    bool                 `json:"invisible"`
	Retired      bool                 `json:"retired"`
	InCombat     bool                 `json:"in_combat"`
	CombatTarget ai.ActorID           `json:"combat_target"`
	Mode         ai.AnimationMode     `json:"mode"`
	Anim         ai.AnimationState    `json:"anim"`
	Friendliness map[ai.ActorID]int   `json:"friendliness,omitempty"`
	Clues        map[int]ai.ActorID   `json:"clues,omitempty"`
	Timers       [ai.TimerCount]Timer `json:"timers"`
	Track        Track                `json:"track"`
}

// Snapshot is a complete, self-contained copy of the world.
type Snapshot struct {
	Tick      uint64          `json:"tick"`
	Scene     int             `json:"scene"`
	Flags     map[int]bool    `json:"flags"`
	Variables map[int]int     `json:"variables"`
	Actors    []ActorSnapshot `json:"actors"`
}

// Snapshot captures the world. Animation cursors are read through the registry.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:      w.tick,
		Scene:     w.scene,
		Flags:     w.state.Flags(),
		Variables: w.state.Variables(),
		Actors:    make([]ActorSnapshot, 0, len(w.actors)),
	}
	for _, a := range w.actors {
		anim, _ := w.reg.QueryAnimationState(a.ID)
		s.Actors = append(s.Actors, ActorSnapshot{
			ID:           a.ID,
			Goal:         a.Goal,
			Set:          a.Set,
			X:            a.X,
			Y:            a.Y,
			Z:            a.Z,
			Facing:       a.Facing,
			Health:       a.Health,
			MaxHealth:    a.MaxHealth,
			Targetable:   a.Targetable,
			Invisible:    a.Invisible,
			Retired:      a.Retired,
			InCombat:     a.InCombat,
			CombatTarget: a.CombatTarget,
			Mode:         a.Mode,
			Anim:         anim,
			Friendliness: cloneMap(a.Friendliness),
			Clues:        cloneMap(a.Clues),
			Timers:       a.Timers,
			Track: Track{
				Entries: append([]ai.TrackWaypoint(nil), a.Track.Entries...),
				Index:   a.Track.Index,
				Wait:    a.Track.Wait,
				Running: a.Track.Running,
				Paused:  a.Track.Paused,
			},
		})
	}
	return s
}

// Restore replaces the world with s. Scripts are not re-initialized and no
// events fire; each cursor is handed back through SetAnimationState. Actors
// missing from s are reset to a blank record.
func (w *World) Restore(s Snapshot) {
	w.tick = s.Tick
	w.scene = s.Scene
	w.pendingScene = nil
	w.state.Replace(s.Flags, s.Variables)

	for i := range w.actors {
		w.actors[i] = newActor(ai.ActorID(i))
		if m, ok := w.cast[ai.ActorID(i)]; ok {
			w.actors[i].Name = m.Name
		}
	}
	for _, as := range s.Actors {
		a := w.actor(as.ID)
		if a == nil {
			w.logger.Warn("snapshot actor outside table", zap.Int("actor", int(as.ID)))
			continue
		}
		a.Goal = as.Goal
		a.Set = as.Set
		a.X, a.Y, a.Z = as.X, as.Y, as.Z
		a.Facing = as.Facing
		a.Health, a.MaxHealth = as.Health, as.MaxHealth
		a.Targetable = as.Targetable
		a.Invisible = as.Invisible
		a.Retired = as.Retired
		a.InCombat = as.InCombat
		a.CombatTarget = as.CombatTarget
		a.Mode = as.Mode
		if as.Friendliness != nil {
			a.Friendliness = cloneMap(as.Friendliness)
		}
		if as.Clues != nil {
			a.Clues = cloneMap(as.Clues)
		}
		a.Timers = as.Timers
		a.Track = Track{
			Entries: append([]ai.TrackWaypoint(nil), as.Track.Entries...),
			Index:   as.Track.Index,
			Wait:    as.Track.Wait,
			Running: as.Track.Running,
			Paused:  as.Track.Paused,
		}
		w.reg.SetAnimationState(as.ID, as.Anim)
	}
}
