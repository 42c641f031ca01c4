package world

import (
	"slices"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/plugin/hook"
	"go.uber.org/zap"
)

// Friendliness returns how friendly id is toward other, 0..100. Pairs never
// touched start at 50.
func (w *World) Friendliness(id, other ai.ActorID) int {
	if a := w.actor(id); a != nil {
		return a.friendliness(other)
	}
	return defaultFriendliness
}

func (w *World) ModifyFriendliness(id, other ai.ActorID, delta int) {
	a := w.actor(id)
	if a == nil || !w.valid(other) || delta == 0 {
		return
	}
	v := clampFriendliness(a.friendliness(other) + delta)
	a.Friendliness[other] = v
	w.trace("modify_friendliness", id, zap.Int("other", int(other)), zap.Int("delta", delta), zap.Int("now", v))
}

func (w *World) ClueQuery(id ai.ActorID, clue int) bool {
	a := w.actor(id)
	if a == nil {
		return false
	}
	_, ok := a.Clues[clue]
	return ok
}

// ClueAcquire gives clue to id. ReceivedClue fires only the first time.
func (w *World) ClueAcquire(id ai.ActorID, clue int, from ai.ActorID) {
	a := w.actor(id)
	if a == nil {
		return
	}
	if _, ok := a.Clues[clue]; ok {
		return
	}
	w.trace("clue_acquire", id, zap.Int("clue", clue), zap.Int("from", int(from)))
	a.Clues[clue] = from
	w.reg.ReceivedClue(id, clue, from)
	w.emit(hook.ClueAcquired, func() interface{} {
		return ClueTransfer{Actor: id, Clue: clue, From: from, Tick: w.tick}
	})
}

// ShareClues offers every clue from holds and to lacks, lowest id first. The
// giver's friendliness modifier decides: a negative delta means the clue is
// withheld. For each clue handed over, the giver and every other actor in the
// receiver's set adjust their friendliness toward the receiver by their own
// modifier. It returns the clues transferred.
func (w *World) ShareClues(from, to ai.ActorID) []int {
	giver, receiver := w.actor(from), w.actor(to)
	if giver == nil || receiver == nil || from == to {
		return nil
	}
	offered := make([]int, 0, len(giver.Clues))
	for clue := range giver.Clues {
		if _, ok := receiver.Clues[clue]; !ok {
			offered = append(offered, clue)
		}
	}
	slices.Sort(offered)

	var given []int
	for _, clue := range offered {
		delta := w.reg.GetFriendlinessModifierIfGetsClue(from, to, clue)
		if delta < 0 {
			w.trace("clue_withheld", from, zap.Int("clue", clue), zap.Int("to", int(to)))
			continue
		}
		w.ClueAcquire(to, clue, from)
		given = append(given, clue)

		w.ModifyFriendliness(from, to, delta)
		for _, obs := range w.membersOf(receiver.Set, to) {
			if obs == from {
				continue
			}
			w.ModifyFriendliness(obs, to, w.reg.GetFriendlinessModifierIfGetsClue(obs, to, clue))
		}
	}
	return given
}
