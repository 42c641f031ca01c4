package model

// GameFlag stores a global story flag (set/reset).
type GameFlag struct {
	FlagID int  `gorm:"primaryKey;autoIncrement:false" json:"flag_id"`
	Value  bool `json:"value"`
}

func (GameFlag) TableName() string { return "game_flags" }

// GlobalVariable stores a global integer variable.
type GlobalVariable struct {
	VariableID int `gorm:"primaryKey;autoIncrement:false" json:"variable_id"`
	Value      int `json:"value"`
}

func (GlobalVariable) TableName() string { return "global_variables" }
