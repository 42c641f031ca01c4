package world

import (
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/plugin/hook"
	"go.uber.org/zap"
)

func (w *World) SetOf(id ai.ActorID) int {
	if a := w.actor(id); a != nil {
		return a.Set
	}
	return NoSet
}

// membersOf returns the actors currently in set, excluding skip, in table order.
func (w *World) membersOf(set int, skip ai.ActorID) []ai.ActorID {
	if set == NoSet {
		return nil
	}
	var ids []ai.ActorID
	for _, a := range w.actors {
		if a.Set == set && a.ID != skip {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// PutInSet moves id into set. Members of the old set hear that id left, then
// id hears EnteredSet, then members of the new set hear that id arrived.
// Moving to NoSet takes the actor out without any arrival notifications.
func (w *World) PutInSet(id ai.ActorID, set int) {
	a := w.actor(id)
	if a == nil || a.Set == set {
		return
	}
	from := a.Set
	w.trace("put_in_set", id, zap.Int("from", from), zap.Int("to", set))

	leftBehind := w.membersOf(from, id)
	a.Set = set
	for _, other := range leftBehind {
		w.reg.OtherAgentExitedThisSet(other, id)
	}
	if set == NoSet {
		return
	}
	w.reg.EnteredSet(id, set)
	for _, other := range w.membersOf(set, id) {
		w.reg.OtherAgentEnteredThisSet(other, id)
	}
	w.emit(hook.ActorEnteredSet, func() interface{} {
		return SetEntry{Actor: id, From: from, To: set, Tick: w.tick}
	})
}

func (w *World) face(a *Actor, facing int) {
	if facing != ai.NoFacing {
		a.Facing = facing
	}
}

func (w *World) SetAtXYZ(id ai.ActorID, x, y, z float64, facing int) {
	a := w.actor(id)
	if a == nil {
		return
	}
	a.X, a.Y, a.Z = x, y, z
	w.face(a, facing)
}

// SetAtWaypoint places id on a catalog waypoint, changing set when the
// waypoint lives in another one. Unknown waypoints are ignored.
func (w *World) SetAtWaypoint(id ai.ActorID, waypoint, facing int) {
	a := w.actor(id)
	if a == nil {
		return
	}
	if w.res == nil {
		w.logger.Warn("no catalog for waypoint placement", zap.Int("actor", int(id)), zap.Int("waypoint", waypoint))
		return
	}
	wp, ok := w.res.Waypoint(waypoint)
	if !ok {
		w.logger.Warn("unknown waypoint", zap.Int("actor", int(id)), zap.Int("waypoint", waypoint))
		return
	}
	w.trace("set_at_waypoint", id, zap.Int("waypoint", waypoint))
	if a.Set != wp.Set {
		w.PutInSet(id, wp.Set)
	}
	a.X, a.Y, a.Z = wp.X, wp.Y, wp.Z
	w.face(a, facing)
}

// WalkToWaypoint arrives immediately; the route itself is not simulated.
func (w *World) WalkToWaypoint(id ai.ActorID, waypoint int, run bool) {
	w.trace("walk_to_waypoint", id, zap.Int("waypoint", waypoint), zap.Bool("run", run))
	w.SetAtWaypoint(id, waypoint, ai.NoFacing)
}

// WalkToActor places id on other's position, in other's set.
func (w *World) WalkToActor(id, other ai.ActorID) {
	a, b := w.actor(id), w.actor(other)
	if a == nil || b == nil || id == other {
		return
	}
	w.trace("walk_to_actor", id, zap.Int("other", int(other)))
	if a.Set != b.Set {
		w.PutInSet(id, b.Set)
	}
	a.X, a.Y, a.Z = b.X, b.Y, b.Z
}
