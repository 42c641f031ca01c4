package model

import (
	"time"

	"gorm.io/datatypes"
)

// SaveGame is one save slot. Flags and variables are stored as JSON objects
// keyed by id.
type SaveGame struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Name      string         `gorm:"size:64;not null" json:"name"`
	Tick      uint64         `json:"tick"`
	PlayerSet int            `json:"player_set"`
	Scene     int            `json:"scene"`
	Flags     datatypes.JSON `json:"flags"`
	Variables datatypes.JSON `json:"variables"`
	Actors    []SaveActor    `gorm:"foreignKey:SaveID;constraint:OnDelete:CASCADE" json:"actors,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime:milli;index:idx_save_created" json:"created_at"`
}

func (SaveGame) TableName() string { return "save_games" }

// SaveActor is the persisted runtime record of one actor in a slot.
type SaveActor struct {
	SaveID       string         `gorm:"primaryKey;size:36" json:"save_id"`
	ActorID      int            `gorm:"primaryKey;autoIncrement:false" json:"actor_id"`
	Goal         int            `json:"goal"`
	SetID        int            `json:"set_id"`
	X            float64        `json:"x"`
	Y            float64        `json:"y"`
	Z            float64        `json:"z"`
	Facing       int            `json:"facing"`
	Health       int            `json:"health"`
	MaxHealth    int            `json:"max_health"`
	Targetable   bool           `json:"targetable"`
	Invisible    bool           `json:"invisible"`
	Retired      bool           `json:"retired"`
	InCombat     bool           `json:"in_combat"`
	CombatTarget int            `json:"combat_target"`
	Mode         int            `json:"mode"`
	AnimState    int            `json:"anim_state"`
	AnimFrame    int            `json:"anim_frame"`
	AnimStateNxt int            `gorm:"column:anim_state_next" json:"anim_state_next"`
	AnimNext     int            `json:"anim_next"`
	Friendliness datatypes.JSON `json:"friendliness"`
	Clues        datatypes.JSON `json:"clues"`
	Timers       datatypes.JSON `json:"timers"`
	Track        datatypes.JSON `json:"track"`
}

func (SaveActor) TableName() string { return "save_actors" }
