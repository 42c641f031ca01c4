package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TraceGoalChanged = "goal_changed"
	TraceRetired     = "retired"
)

// GoalTrace records an actor goal transition or retirement for later replay.
type GoalTrace struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      string         `gorm:"size:32;not null;index:idx_trace_kind" json:"kind"`
	ActorID   int            `gorm:"index:idx_trace_actor;not null" json:"actor_id"`
	OldGoal   int            `json:"old_goal"`
	NewGoal   int            `json:"new_goal"`
	Accepted  bool           `json:"accepted"`
	ByActor   int            `json:"by_actor"`
	Tick      uint64         `json:"tick"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"index:idx_trace_created;autoCreateTime:milli" json:"created_at"`
}

func (GoalTrace) TableName() string { return "goal_traces" }
