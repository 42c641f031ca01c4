package world

import (
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"go.uber.org/zap"
)

// ---- Movement tracks ----

func (w *World) TrackFlush(id ai.ActorID) {
	if a := w.actor(id); a != nil {
		w.trace("track_flush", id)
		a.Track.flush()
	}
}

func (w *World) TrackAppend(id ai.ActorID, wp ai.TrackWaypoint) {
	a := w.actor(id)
	if a == nil {
		return
	}
	w.trace("track_append", id, zap.Int("waypoint", wp.Waypoint), zap.Duration("delay", wp.Delay), zap.Bool("run", wp.Run))
	a.Track.Entries = append(a.Track.Entries, wp)
}

// TrackRepeat starts the track from its first entry. An empty track stays idle.
func (w *World) TrackRepeat(id ai.ActorID) {
	a := w.actor(id)
	if a == nil || a.Retired {
		return
	}
	w.trace("track_repeat", id, zap.Int("entries", len(a.Track.Entries)))
	a.Track.restart()
}

func (w *World) TrackPause(id ai.ActorID) {
	if a := w.actor(id); a != nil {
		a.Track.Paused = true
	}
}

func (w *World) TrackUnpause(id ai.ActorID) {
	if a := w.actor(id); a != nil {
		a.Track.Paused = false
	}
}

// advanceTrack moves id's track forward by dt: at most one waypoint is reached
// per frame. The waypoint's delay is waited out after arrival; when the last
// delay runs out the track completes.
func (w *World) advanceTrack(a *Actor, dt time.Duration) {
	t := &a.Track
	if !t.Running || t.Paused || a.Retired {
		return
	}
	if t.Wait > 0 {
		t.Wait -= dt
		if t.Wait > 0 {
			return
		}
		t.Wait = 0
	}
	if t.Index >= len(t.Entries) {
		t.Running = false
		w.reg.CompletedMovementTrack(a.ID)
		return
	}

	e := t.Entries[t.Index]
	t.Index++
	gen := t.gen
	w.arrive(a, e)

	cont := w.reg.ReachedMovementTrackWaypoint(a.ID, e.Waypoint)
	if t.gen != gen {
		return // the handler rebuilt the track
	}
	if !cont {
		t.Running = false
		return
	}
	t.Wait = e.Delay
}

func (w *World) arrive(a *Actor, e ai.TrackWaypoint) {
	if w.res == nil {
		w.face(a, e.Facing)
		return
	}
	w.SetAtWaypoint(a.ID, e.Waypoint, e.Facing)
}

// ---- Timers ----

func (w *World) timerSlot(id ai.ActorID, timer int) *Timer {
	a := w.actor(id)
	if a == nil {
		return nil
	}
	if timer < 0 || timer >= ai.TimerCount {
		w.logger.Warn("timer slot out of range", zap.Int("actor", int(id)), zap.Int("timer", timer))
		return nil
	}
	return &a.Timers[timer]
}

// TimerStart arms a countdown. A timer fires once; the script re-arms it from
// TimerExpired if it wants a period.
func (w *World) TimerStart(id ai.ActorID, timer int, after time.Duration) {
	if t := w.timerSlot(id, timer); t != nil {
		w.trace("timer_start", id, zap.Int("timer", timer), zap.Duration("after", after))
		*t = Timer{Active: true, Left: after}
	}
}

func (w *World) TimerReset(id ai.ActorID, timer int) {
	if t := w.timerSlot(id, timer); t != nil {
		*t = Timer{}
	}
}

func (w *World) advanceTimers(a *Actor, dt time.Duration) {
	for i := range a.Timers {
		t := &a.Timers[i]
		if !t.Active {
			continue
		}
		t.Left -= dt
		if t.Left > 0 {
			continue
		}
		*t = Timer{}
		w.reg.TimerExpired(a.ID, i)
	}
}

// ---- Speech hold ----

func (w *World) advanceTalk(a *Actor, dt time.Duration) {
	if !a.talking {
		return
	}
	a.talkLeft -= dt
	if a.talkLeft > 0 {
		return
	}
	a.talking = false
	a.talkLeft = 0
	if !a.Retired && a.Mode != a.preTalk {
		w.ChangeAnimationMode(a.ID, a.preTalk)
	}
}
