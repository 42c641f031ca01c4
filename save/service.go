// Package save persists world snapshots: named slots in the database and a
// single quicksave kept in the cache.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/actorai/cache"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrSlotNotFound = errors.New("save: slot not found")
	ErrNoQuickSave  = errors.New("save: no quicksave")
)

const (
	quickSaveKey  = "actorai:quicksave"
	autosaveName  = "autosave"
	autosavesKept = 3
)

// Service saves and loads the world behind an Engine. Every world access goes
// through Engine.Do, so it is safe to call from HTTP handlers and the
// scheduler alike.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	engine *world.Engine
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a Service. ttl bounds how long a quicksave lives in the cache.
func New(db *gorm.DB, c cache.Cache, engine *world.Engine, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, engine: engine, ttl: ttl, logger: logger}
}

func (s *Service) snapshot() (world.Snapshot, int) {
	var snap world.Snapshot
	var playerSet int
	s.engine.Do(func(w *world.World) {
		snap = w.Snapshot()
		playerSet = w.PlayerSet()
	})
	return snap, playerSet
}

// Save writes the current world into a new slot.
func (s *Service) Save(ctx context.Context, name string) (*model.SaveGame, error) {
	snap, playerSet := s.snapshot()
	rec, err := toModel(uuid.New().String(), name, playerSet, snap)
	if err != nil {
		return nil, fmt.Errorf("save: encode: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("save: write slot: %w", err)
	}
	s.logger.Info("game saved",
		zap.String("slot", rec.ID),
		zap.String("name", name),
		zap.Uint64("tick", snap.Tick))
	return rec, nil
}

// Load replaces the world with the slot's contents. Scripts are not
// re-initialized; their cursors come back through SetAnimationState.
func (s *Service) Load(ctx context.Context, id string) error {
	var rec model.SaveGame
	err := s.db.WithContext(ctx).Preload("Actors").First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSlotNotFound
	}
	if err != nil {
		return fmt.Errorf("save: read slot: %w", err)
	}
	snap, err := fromModel(&rec)
	if err != nil {
		return fmt.Errorf("save: decode slot %s: %w", id, err)
	}
	s.engine.Do(func(w *world.World) { w.Restore(snap) })
	s.logger.Info("game loaded", zap.String("slot", id), zap.Uint64("tick", snap.Tick))
	return nil
}

// List returns the slots without their actor records, newest first.
func (s *Service) List(ctx context.Context) ([]model.SaveGame, error) {
	var out []model.SaveGame
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("save: list: %w", err)
	}
	return out, nil
}

// Delete removes a slot and its actor records.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("save_id = ?", id).Delete(&model.SaveActor{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.SaveGame{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSlotNotFound
		}
		return nil
	})
}

// Autosave writes an "autosave" slot and prunes all but the newest few.
func (s *Service) Autosave(ctx context.Context) error {
	if _, err := s.Save(ctx, autosaveName); err != nil {
		return err
	}
	var stale []model.SaveGame
	err := s.db.WithContext(ctx).
		Where("name = ?", autosaveName).
		Order("created_at DESC").
		Offset(autosavesKept).
		Find(&stale).Error
	if err != nil {
		return fmt.Errorf("save: list autosaves: %w", err)
	}
	for _, old := range stale {
		if err := s.Delete(ctx, old.ID); err != nil && !errors.Is(err, ErrSlotNotFound) {
			s.logger.Warn("autosave prune failed", zap.String("slot", old.ID), zap.Error(err))
		}
	}
	return nil
}

// QuickSave stores the world as one JSON document in the cache.
func (s *Service) QuickSave(ctx context.Context) error {
	snap, _ := s.snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("save: encode quicksave: %w", err)
	}
	if err := s.cache.Set(ctx, quickSaveKey, string(data), s.ttl); err != nil {
		return fmt.Errorf("save: write quicksave: %w", err)
	}
	s.logger.Debug("quicksave written", zap.Uint64("tick", snap.Tick), zap.Int("bytes", len(data)))
	return nil
}

// QuickLoad restores the quicksave, or returns ErrNoQuickSave.
func (s *Service) QuickLoad(ctx context.Context) error {
	data, err := s.cache.Get(ctx, quickSaveKey)
	if cache.IsNotFound(err) {
		return ErrNoQuickSave
	}
	if err != nil {
		return fmt.Errorf("save: read quicksave: %w", err)
	}
	var snap world.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return fmt.Errorf("save: decode quicksave: %w", err)
	}
	s.engine.Do(func(w *world.World) { w.Restore(snap) })
	return nil
}

// ---- model conversion ----

func toModel(id, name string, playerSet int, snap world.Snapshot) (*model.SaveGame, error) {
	flags, err := json.Marshal(snap.Flags)
	if err != nil {
		return nil, err
	}
	vars, err := json.Marshal(snap.Variables)
	if err != nil {
		return nil, err
	}
	rec := &model.SaveGame{
		ID:        id,
		Name:      name,
		Tick:      snap.Tick,
		PlayerSet: playerSet,
		Scene:     snap.Scene,
		Flags:     datatypes.JSON(flags),
		Variables: datatypes.JSON(vars),
		Actors:    make([]model.SaveActor, 0, len(snap.Actors)),
	}
	for _, a := range snap.Actors {
		sa := model.SaveActor{
			SaveID:       id,
			ActorID:      int(a.ID),
			Goal:         a.Goal,
			SetID:        a.Set,
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
			CombatTarget: int(a.CombatTarget),
			Mode:         int(a.Mode),
			AnimState:    a.Anim.State,
			AnimFrame:    a.Anim.Frame,
			AnimStateNxt: a.Anim.StateNext,
			AnimNext:     a.Anim.AnimationNext,
		}
		cols := []struct {
			dst *datatypes.JSON
			v   interface{}
		}{
			{&sa.Friendliness, a.Friendliness},
			{&sa.Clues, a.Clues},
			{&sa.Timers, a.Timers},
			{&sa.Track, a.Track},
		}
		for _, c := range cols {
			b, err := json.Marshal(c.v)
			if err != nil {
				return nil, fmt.Errorf("actor %d: %w", a.ID, err)
			}
			*c.dst = datatypes.JSON(b)
		}
		rec.Actors = append(rec.Actors, sa)
	}
	return rec, nil
}

func fromModel(rec *model.SaveGame) (world.Snapshot, error) {
	snap := world.Snapshot{
		Tick:   rec.Tick,
		Scene:  rec.Scene,
		Actors: make([]world.ActorSnapshot, 0, len(rec.Actors)),
	}
	if err := unmarshalColumn(rec.Flags, &snap.Flags); err != nil {
		return snap, fmt.Errorf("flags: %w", err)
	}
	if err := unmarshalColumn(rec.Variables, &snap.Variables); err != nil {
		return snap, fmt.Errorf("variables: %w", err)
	}
	for _, sa := range rec.Actors {
		a := world.ActorSnapshot{
			ID:           ai.ActorID(sa.ActorID),
			Goal:         sa.Goal,
			Set:          sa.SetID,
			X:            sa.X,
			Y:            sa.Y,
			Z:            sa.Z,
			Facing:       sa.Facing,
			Health:       sa.Health,
			MaxHealth:    sa.MaxHealth,
			Targetable:   sa.Targetable,
			Invisible:    sa.Invisible,
			Retired:      sa.Retired,
			InCombat:     sa.InCombat,
			CombatTarget: ai.ActorID(sa.CombatTarget),
			Mode:         ai.AnimationMode(sa.Mode),
			Anim: ai.AnimationState{
				State:         sa.AnimState,
				Frame:         sa.AnimFrame,
				StateNext:     sa.AnimStateNxt,
				AnimationNext: sa.AnimNext,
			},
		}
		for _, c := range []struct {
			src datatypes.JSON
			dst interface{}
		}{
			{sa.Friendliness, &a.Friendliness},
			{sa.Clues, &a.Clues},
			{sa.Timers, &a.Timers},
			{sa.Track, &a.Track},
		} {
			if err := unmarshalColumn(c.src, c.dst); err != nil {
				return snap, fmt.Errorf("actor %d: %w", sa.ActorID, err)
			}
		}
		snap.Actors = append(snap.Actors, a)
	}
	return snap, nil
}

func unmarshalColumn(src datatypes.JSON, dst interface{}) error {
	if len(src) == 0 {
		return nil
	}
	return json.Unmarshal(src, dst)
}
