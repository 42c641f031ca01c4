package world

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/kasuganosora/actorai/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// flushInterval is how often queued flag and variable writes reach the database.
const flushInterval = 5 * time.Second

// pendingChange represents a pending database write.
type pendingChange struct {
	typ string // "flag", "variable"
	id  int
	val int // flags store 0/1
}

// GameState holds the story flags and global variables shared by every actor
// script. Values are kept in memory and written to the database in batches.
type GameState struct {
	mu        sync.RWMutex
	flags     map[int]bool
	variables map[int]int
	db        *gorm.DB // nil = no persistence (tests)
	logger    *zap.Logger

	// Batch persistence
	pending     map[string]pendingChange
	pendingMu   sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewGameState creates an empty GameState with optional DB persistence.
func NewGameState(db *gorm.DB, logger *zap.Logger) *GameState {
	gs := &GameState{
		flags:     make(map[int]bool),
		variables: make(map[int]int),
		db:        db,
		logger:    logger,
		pending:   make(map[string]pendingChange),
		stopCh:    make(chan struct{}),
	}

	if db != nil {
		gs.flushTicker = time.NewTicker(flushInterval)
		go gs.batchFlusher()
	}

	return gs
}

// Stop stops the background flusher and flushes remaining changes.
func (gs *GameState) Stop() {
	gs.stopOnce.Do(func() {
		if gs.flushTicker != nil {
			gs.flushTicker.Stop()
			close(gs.stopCh)
			gs.Flush()
		}
	})
}

func (gs *GameState) batchFlusher() {
	for {
		select {
		case <-gs.flushTicker.C:
			gs.Flush()
		case <-gs.stopCh:
			return
		}
	}
}

// Flush writes all pending changes to the database.
func (gs *GameState) Flush() {
	if gs.db == nil {
		return
	}

	gs.pendingMu.Lock()
	if len(gs.pending) == 0 {
		gs.pendingMu.Unlock()
		return
	}
	changes := make([]pendingChange, 0, len(gs.pending))
	for _, ch := range gs.pending {
		changes = append(changes, ch)
	}
	gs.pending = make(map[string]pendingChange)
	gs.pendingMu.Unlock()

	upsert := clause.OnConflict{DoUpdates: clause.AssignmentColumns([]string{"value"})}
	err := gs.db.Transaction(func(tx *gorm.DB) error {
		for _, ch := range changes {
			var row interface{}
			switch ch.typ {
			case "flag":
				row = &model.GameFlag{FlagID: ch.id, Value: ch.val != 0}
			case "variable":
				row = &model.GlobalVariable{VariableID: ch.id, Value: ch.val}
			default:
				continue
			}
			if err := tx.Clauses(upsert).Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil && gs.logger != nil {
		gs.logger.Error("failed to flush game state", zap.Error(err), zap.Int("changes", len(changes)))
	}
}

func (gs *GameState) queueFlag(id int, val bool) {
	v := 0
	if val {
		v = 1
	}
	gs.pendingMu.Lock()
	gs.pending[fmt.Sprintf("flag:%d", id)] = pendingChange{typ: "flag", id: id, val: v}
	gs.pendingMu.Unlock()
}

func (gs *GameState) queueVariable(id, val int) {
	gs.pendingMu.Lock()
	gs.pending[fmt.Sprintf("var:%d", id)] = pendingChange{typ: "variable", id: id, val: val}
	gs.pendingMu.Unlock()
}

// LoadFromDB populates the in-memory state from the database.
// Call once at startup after NewGameState.
func (gs *GameState) LoadFromDB() error {
	if gs.db == nil {
		return nil
	}
	gs.mu.Lock()
	defer gs.mu.Unlock()

	var flags []model.GameFlag
	if err := gs.db.Find(&flags).Error; err != nil {
		return fmt.Errorf("world: load flags: %w", err)
	}
	for _, f := range flags {
		gs.flags[f.FlagID] = f.Value
	}

	var vars []model.GlobalVariable
	if err := gs.db.Find(&vars).Error; err != nil {
		return fmt.Errorf("world: load variables: %w", err)
	}
	for _, v := range vars {
		gs.variables[v.VariableID] = v.Value
	}
	return nil
}

// Flag returns the value of a story flag.
func (gs *GameState) Flag(id int) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.flags[id]
}

// SetFlag sets or resets a story flag and queues it for persistence.
func (gs *GameState) SetFlag(id int, val bool) {
	gs.mu.Lock()
	gs.flags[id] = val
	gs.mu.Unlock()
	gs.queueFlag(id, val)
}

// Variable returns the value of a global variable.
func (gs *GameState) Variable(id int) int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.variables[id]
}

// SetVariable sets a global variable and queues it for persistence.
func (gs *GameState) SetVariable(id, val int) {
	gs.mu.Lock()
	gs.variables[id] = val
	gs.mu.Unlock()
	gs.queueVariable(id, val)
}

// AddVariable adds delta to a global variable and returns the new value.
func (gs *GameState) AddVariable(id, delta int) int {
	gs.mu.Lock()
	gs.variables[id] += delta
	v := gs.variables[id]
	gs.mu.Unlock()
	gs.queueVariable(id, v)
	return v
}

// Flags returns a copy of every flag that has been written.
func (gs *GameState) Flags() map[int]bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return maps.Clone(gs.flags)
}

// Variables returns a copy of every variable that has been written.
func (gs *GameState) Variables() map[int]int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return maps.Clone(gs.variables)
}

// Replace swaps in a complete set of flags and variables (save load). Keys
// missing from the new set are reset and queued as such.
func (gs *GameState) Replace(flags map[int]bool, variables map[int]int) {
	gs.mu.Lock()
	oldFlags, oldVars := gs.flags, gs.variables
	gs.flags = maps.Clone(flags)
	gs.variables = maps.Clone(variables)
	if gs.flags == nil {
		gs.flags = make(map[int]bool)
	}
	if gs.variables == nil {
		gs.variables = make(map[int]int)
	}
	gs.mu.Unlock()

	for id := range oldFlags {
		if _, ok := flags[id]; !ok {
			gs.queueFlag(id, false)
		}
	}
	for id, v := range flags {
		gs.queueFlag(id, v)
	}
	for id := range oldVars {
		if _, ok := variables[id]; !ok {
			gs.queueVariable(id, 0)
		}
	}
	for id, v := range variables {
		gs.queueVariable(id, v)
	}
}
