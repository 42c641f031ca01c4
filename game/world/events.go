package world

import (
	"context"
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"go.uber.org/zap"
)

// Hook payloads. Each is passed by value to hook.HookCenter.Trigger.

type GoalChange struct {
	Actor    ai.ActorID `json:"actor"`
	Old      int        `json:"old"`
	New      int        `json:"new"`
	Accepted bool       `json:"accepted"`
	Tick     uint64     `json:"tick"`
}

type Retirement struct {
	Actor ai.ActorID `json:"actor"`
	By    ai.ActorID `json:"by"`
	Tick  uint64     `json:"tick"`
}

type SetEntry struct {
	Actor ai.ActorID `json:"actor"`
	From  int        `json:"from"`
	To    int        `json:"to"`
	Tick  uint64     `json:"tick"`
}

type ClueTransfer struct {
	Actor ai.ActorID `json:"actor"`
	Clue  int        `json:"clue"`
	From  ai.ActorID `json:"from"`
	Tick  uint64     `json:"tick"`
}

type SceneChange struct {
	Set   int    `json:"set"`
	Scene int    `json:"scene"`
	Tick  uint64 `json:"tick"`
}

type Speech struct {
	Actor ai.ActorID       `json:"actor"`
	Line  int              `json:"line"`
	Mode  ai.AnimationMode `json:"mode"`
	Pause time.Duration    `json:"pause"`
	Tick  uint64           `json:"tick"`
}

// emit triggers event when somebody listens. build runs only in that case.
func (w *World) emit(event string, build func() interface{}) {
	if !w.hooks.Has(event) {
		return
	}
	if _, err := w.hooks.Trigger(context.Background(), event, build()); err != nil {
		w.logger.Debug("hook chain stopped", zap.String("event", event), zap.Error(err))
	}
}
