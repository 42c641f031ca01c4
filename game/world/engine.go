package world

import (
	"sync"
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"go.uber.org/zap"
)

// Frame is the animation an on-screen actor shows this frame.
type Frame struct {
	Actor     ai.ActorID `json:"actor"`
	Animation int        `json:"animation"`
	Frame     int        `json:"frame"`
}

// step runs one frame: every actor's Update in table order, then timers, then
// movement tracks, then speech holds, then a deferred scene change, and
// finally UpdateAnimation for the visible actors in the player's set.
func (w *World) step(dt time.Duration) []Frame {
	w.tick++
	for _, a := range w.actors {
		w.reg.Update(a.ID)
	}
	for _, a := range w.actors {
		w.advanceTimers(a, dt)
	}
	for _, a := range w.actors {
		w.advanceTrack(a, dt)
	}
	for _, a := range w.actors {
		w.advanceTalk(a, dt)
	}
	if sc := w.pendingScene; sc != nil {
		w.pendingScene = nil
		w.enterScene(sc.Set, sc.Scene)
	}

	set := w.PlayerSet()
	if set == NoSet {
		return nil
	}
	var frames []Frame
	for _, a := range w.actors {
		if a.Set != set || a.Invisible {
			continue
		}
		if anim, frame, ok := w.reg.UpdateAnimation(a.ID); ok {
			frames = append(frames, Frame{Actor: a.ID, Animation: anim, Frame: frame})
		}
	}
	return frames
}

// Engine serializes everything that touches the world: the frame loop and
// every outside request (debug API, save/load) run under one lock, so scripts
// always see a single-threaded world.
type Engine struct {
	mu     sync.Mutex
	world  *World
	last   []Frame
	logger *zap.Logger
}

// NewEngine wraps w.
func NewEngine(w *World, logger *zap.Logger) *Engine {
	return &Engine{world: w, logger: logger}
}

// Tick advances the world by dt and returns the frames to render.
func (e *Engine) Tick(dt time.Duration) []Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	frames := e.world.step(dt)
	e.last = frames
	if ce := e.logger.Check(zap.DebugLevel, "tick"); ce != nil {
		ce.Write(zap.Uint64("tick", e.world.tick), zap.Int("frames", len(frames)))
	}
	return frames
}

// Do runs fn with exclusive access to the world. fn must not keep w.
func (e *Engine) Do(fn func(w *World)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.world)
}

// LastFrames returns the frames produced by the latest Tick.
func (e *Engine) LastFrames() []Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Frame(nil), e.last...)
}

// NewGame resets the world and re-initializes every script.
func (e *Engine) NewGame() {
	e.Do(func(w *World) { w.NewGame() })
	e.mu.Lock()
	e.last = nil
	e.mu.Unlock()
}
