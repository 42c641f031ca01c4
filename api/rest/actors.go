package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/model"
	"go.uber.org/zap"
)

type actorInfo struct {
	ID           ai.ActorID         `json:"id"`
	Name         string             `json:"name"`
	Goal         int                `json:"goal"`
	Set          int                `json:"set"`
	X            float64            `json:"x"`
	Y            float64            `json:"y"`
	Z            float64            `json:"z"`
	Facing       int                `json:"facing"`
	Health       int                `json:"health"`
	MaxHealth    int                `json:"max_health"`
	Targetable   bool               `json:"targetable"`
	Invisible    bool               `json:"invisible"`
	Retired      bool               `json:"retired"`
	InCombat     bool               `json:"in_combat"`
	CombatTarget ai.ActorID         `json:"combat_target"`
	Mode         ai.AnimationMode   `json:"mode"`
	LastLine     int                `json:"last_line"`
	Friendliness map[ai.ActorID]int `json:"friendliness,omitempty"`
	Clues        map[int]ai.ActorID `json:"clues,omitempty"`
	Timers       []timerInfo        `json:"timers,omitempty"`
	Track        *world.Track       `json:"track,omitempty"`
	Anim         *ai.AnimationState `json:"anim,omitempty"`
	Traces       []model.GoalTrace  `json:"traces,omitempty"`
}

type timerInfo struct {
	Slot   int   `json:"slot"`
	LeftMs int64 `json:"left_ms"`
}

func newActorInfo(a world.Actor) actorInfo {
	return actorInfo{
		ID:           a.ID,
		Name:         a.Name,
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
		LastLine:     a.LastLine,
	}
}

// ListActors returns the summary of every actor.
// GET /api/debug/actors
func (h *DebugHandler) ListActors(c *gin.Context) {
	var out []actorInfo
	h.engine.Do(func(w *world.World) {
		out = make([]actorInfo, 0, w.Count())
		for i := 0; i < w.Count(); i++ {
			if a, ok := w.Actor(ai.ActorID(i)); ok {
				out = append(out, newActorInfo(a))
			}
		}
	})
	c.JSON(http.StatusOK, gin.H{"actors": out, "count": len(out)})
}

// GetActor returns one actor in full: relations, timers, track, animation
// cursor and, when auditing is on, its latest goal traces.
// GET /api/debug/actors/:id
func (h *DebugHandler) GetActor(c *gin.Context) {
	id, ok := h.actorID(c)
	if !ok {
		return
	}
	var info actorInfo
	h.engine.Do(func(w *world.World) {
		a, _ := w.Actor(id)
		info = newActorInfo(a)
		info.Friendliness = a.Friendliness
		info.Clues = a.Clues
		for slot, t := range a.Timers {
			if t.Active {
				info.Timers = append(info.Timers, timerInfo{Slot: slot, LeftMs: t.Left.Milliseconds()})
			}
		}
		if len(a.Track.Entries) > 0 {
			info.Track = &a.Track
		}
		if st, ok := w.Registry().QueryAnimationState(id); ok {
			info.Anim = &st
		}
	})
	if h.traces != nil {
		traces, err := h.traces.Traces(c.Request.Context(), int(id), 20)
		if err != nil {
			h.logger.Warn("debug: load traces", zap.Int("actor", int(id)), zap.Error(err))
		}
		info.Traces = traces
	}
	c.JSON(http.StatusOK, info)
}

// SetGoal changes an actor's goal as a script would.
// POST /api/debug/actors/:id/goal {"goal": 3}
func (h *DebugHandler) SetGoal(c *gin.Context) {
	id, ok := h.actorID(c)
	if !ok {
		return
	}
	var req struct {
		Goal *int `json:"goal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var goal int
	h.engine.Do(func(w *world.World) {
		w.SetGoal(id, *req.Goal)
		goal = w.Goal(id)
	})
	h.logger.Info("debug set goal", zap.Int("actor", int(id)), zap.Int("goal", goal))
	c.JSON(http.StatusOK, gin.H{"ok": true, "goal": goal})
}

// Click delivers a player click to the actor. Actors in combat ignore it.
// POST /api/debug/actors/:id/click
func (h *DebugHandler) Click(c *gin.Context) {
	id, ok := h.actorID(c)
	if !ok {
		return
	}
	h.engine.Do(func(w *world.World) { w.Registry().ClickedByPlayer(id) })
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GiveClue hands the actor a clue. With "share" set, the actor instead passes
// every clue it holds to that actor, subject to friendliness.
// POST /api/debug/actors/:id/clue {"clue": 7, "from": 0} | {"share": 2}
func (h *DebugHandler) GiveClue(c *gin.Context) {
	id, ok := h.actorID(c)
	if !ok {
		return
	}
	var req struct {
		Clue  *int `json:"clue"`
		From  *int `json:"from"`
		Share *int `json:"share"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Clue == nil && req.Share == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clue or share required"})
		return
	}
	if req.Share != nil {
		var given []int
		h.engine.Do(func(w *world.World) { given = w.ShareClues(id, ai.ActorID(*req.Share)) })
		c.JSON(http.StatusOK, gin.H{"ok": true, "given": given})
		return
	}
	from := ai.NoActor
	if req.From != nil {
		from = ai.ActorID(*req.From)
	}
	h.engine.Do(func(w *world.World) { w.ClueAcquire(id, *req.Clue, from) })
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Combat toggles combat mode, or shoots at the actor.
// POST /api/debug/actors/:id/combat {"on": true, "target": 0}
// POST /api/debug/actors/:id/combat {"flee": true}
// POST /api/debug/actors/:id/combat {"shot_by": 0, "hit": true, "damage": 10}
func (h *DebugHandler) Combat(c *gin.Context) {
	id, ok := h.actorID(c)
	if !ok {
		return
	}
	var req struct {
		On     bool `json:"on"`
		Target *int `json:"target"`
		Flee   bool `json:"flee"`
		ShotBy *int `json:"shot_by"`
		Hit    bool `json:"hit"`
		Damage int  `json:"damage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{"ok": true}
	h.engine.Do(func(w *world.World) {
		switch {
		case req.ShotBy != nil:
			resp["retaliate"] = w.ShootAt(ai.ActorID(*req.ShotBy), id, req.Hit, req.Damage)
			resp["health"] = w.Health(id)
		case req.Flee:
			w.FleeCombat(id)
		case req.On:
			target := w.PlayerActor()
			if req.Target != nil {
				target = ai.ActorID(*req.Target)
			}
			w.CombatModeOn(id, target)
		default:
			w.CombatModeOff(id)
		}
		resp["in_combat"] = w.InCombat(id)
	})
	c.JSON(http.StatusOK, resp)
}

// ChangeAnimation requests an animation mode. A "say" line makes the actor
// speak instead, holding the mode for the line's pause.
// POST /api/debug/actors/:id/animation {"mode": 3} | {"mode": 3, "say": 1000, "pause_ms": 500}
func (h *DebugHandler) ChangeAnimation(c *gin.Context) {
	id, ok := h.actorID(c)
	if !ok {
		return
	}
	var req struct {
		Mode    *int `json:"mode" binding:"required"`
		Say     *int `json:"say"`
		PauseMs int  `json:"pause_ms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode := ai.AnimationMode(*req.Mode)
	var now ai.AnimationMode
	h.engine.Do(func(w *world.World) {
		if req.Say != nil {
			w.SayWithPause(id, *req.Say, time.Duration(req.PauseMs)*time.Millisecond, mode)
		} else {
			w.ChangeAnimationMode(id, mode)
		}
		now = w.AnimationMode(id)
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "mode": now})
}
