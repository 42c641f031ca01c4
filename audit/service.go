// Package audit records actor goal transitions and retirements into the
// goal_traces table so a session can be replayed and inspected later.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/model"
	"github.com/kasuganosora/actorai/plugin/hook"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const hookName = "audit"

// Service writes goal traces asynchronously in batches.
type Service struct {
	db     *gorm.DB
	ch     chan *model.GoalTrace
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.GoalTrace, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Attach subscribes the service to goal changes and retirements.
func (svc *Service) Attach(hc *hook.HookCenter) {
	hc.RegisterEach([]string{hook.AfterGoalChanged, hook.ActorRetired}, 100, hookName, svc.onEvent)
}

// Detach removes the subscriptions made by Attach.
func (svc *Service) Detach(hc *hook.HookCenter) {
	hc.UnregisterAll(hookName)
}

// onEvent runs inside the frame, so it only converts and enqueues.
func (svc *Service) onEvent(_ context.Context, _ string, data interface{}) (interface{}, error) {
	var rec *model.GoalTrace
	switch ev := data.(type) {
	case world.GoalChange:
		rec = &model.GoalTrace{
			Kind:     model.TraceGoalChanged,
			ActorID:  int(ev.Actor),
			OldGoal:  ev.Old,
			NewGoal:  ev.New,
			Accepted: ev.Accepted,
			ByActor:  -1,
			Tick:     ev.Tick,
		}
	case world.Retirement:
		rec = &model.GoalTrace{
			Kind:    model.TraceRetired,
			ActorID: int(ev.Actor),
			ByActor: int(ev.By),
			Tick:    ev.Tick,
		}
	default:
		return data, nil
	}
	detail, _ := json.Marshal(data)
	rec.Detail = datatypes.JSON(detail)
	svc.Record(rec)
	return data, nil
}

// Record enqueues a trace for async DB write. It never blocks; when the queue
// is full the trace is dropped.
func (svc *Service) Record(rec *model.GoalTrace) {
	select {
	case svc.ch <- rec:
	default:
		svc.logger.Warn("audit channel full, dropping trace",
			zap.String("kind", rec.Kind),
			zap.Int("actor", rec.ActorID))
	}
}

// Traces returns the newest traces of one actor, newest first. A negative
// actor returns every actor's traces.
func (svc *Service) Traces(ctx context.Context, actor, limit int) ([]model.GoalTrace, error) {
	if limit <= 0 {
		limit = 50
	}
	q := svc.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if actor >= 0 {
		q = q.Where("actor_id = ?", actor)
	}
	var out []model.GoalTrace
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Stop flushes remaining entries and shuts down the worker.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	batch := make([]*model.GoalTrace, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.ch:
			batch = append(batch, rec)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case rec := <-svc.ch:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}
