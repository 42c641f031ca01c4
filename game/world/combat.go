package world

import (
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/plugin/hook"
	"go.uber.org/zap"
)

// CombatModeOn puts id in combat against target. While in combat the registry
// withholds track completion, waypoint arrival and player clicks from id.
func (w *World) CombatModeOn(id, target ai.ActorID) {
	a := w.actor(id)
	if a == nil || a.Retired {
		return
	}
	if a.InCombat {
		a.CombatTarget = target
		return
	}
	w.trace("combat_on", id, zap.Int("target", int(target)))
	a.InCombat = true
	a.CombatTarget = target
	w.ChangeAnimationMode(id, ai.ModeCombatIdle)
	w.notifyCombat(a, true)
}

func (w *World) CombatModeOff(id ai.ActorID) {
	a := w.actor(id)
	if a == nil || !a.InCombat {
		return
	}
	w.trace("combat_off", id)
	a.InCombat = false
	a.CombatTarget = ai.NoActor
	if !a.Retired {
		w.ChangeAnimationMode(id, ai.ModeIdle)
	}
	w.notifyCombat(a, false)
}

func (w *World) notifyCombat(a *Actor, combat bool) {
	for _, other := range w.membersOf(a.Set, a.ID) {
		w.reg.OtherAgentEnteredCombatMode(other, a.ID, combat)
	}
}

// FleeCombat drops id out of combat and tells its script it fled.
func (w *World) FleeCombat(id ai.ActorID) {
	if !w.InCombat(id) {
		return
	}
	w.CombatModeOff(id)
	w.reg.FledCombat(id)
}

// ShootAt resolves one shot from shooter at target and reports whether target
// retaliates. Untargetable or retired targets cannot be shot. A hit that
// brings health to zero retires the target instead of retaliating.
func (w *World) ShootAt(shooter, target ai.ActorID, hit bool, damage int) bool {
	a := w.actor(target)
	if a == nil || a.Retired || !a.Targetable {
		return false
	}
	w.trace("shot_at", target, zap.Int("shooter", int(shooter)), zap.Bool("hit", hit), zap.Int("damage", damage))
	if !hit {
		w.reg.ShotAtAndMissed(target)
		return false
	}
	retaliate := w.reg.ShotAtAndHit(target)
	if damage > 0 && !a.Retired {
		a.Health = max(a.Health-damage, 0)
		if a.Health == 0 {
			w.Retire(target, shooter)
			return false
		}
	}
	return retaliate && !a.Retired
}

// Retire takes id out of play. Retired fires at most once per actor until the
// next new game or load.
func (w *World) Retire(id, by ai.ActorID) {
	a := w.actor(id)
	if a == nil || a.Retired {
		return
	}
	w.trace("retire", id, zap.Int("by", int(by)))
	mode := ai.ModeDie
	if a.InCombat {
		mode = ai.ModeCombatDie
	}
	a.Retired = true
	a.Targetable = false
	a.Health = 0
	a.Track.flush()
	w.CombatModeOff(id)
	w.ChangeAnimationMode(id, mode)
	w.reg.Retired(id, by)
	w.emit(hook.ActorRetired, func() interface{} {
		return Retirement{Actor: id, By: by, Tick: w.tick}
	})
}
