package audit

import (
	"context"
	"testing"
	"time"

	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/model"
	"github.com/kasuganosora/actorai/plugin/hook"
	"github.com/kasuganosora/actorai/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { return zap.NewNop() }

// goalAccepter accepts every goal change.
type goalAccepter struct{ ai.Template }

func (goalAccepter) GoalChanged(ai.World, int, int) bool { return true }

func newWorld(t *testing.T, hc *hook.HookCenter) *world.World {
	t.Helper()
	reg := ai.NewRegistry(2, map[ai.ActorID]ai.Script{1: &goalAccepter{}}, nop())
	return world.New(reg, nil, nil, world.Options{Player: 0, Seed: 1, Hooks: hc}, nop())
}

func TestNew_StartsWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NotNil(t, svc)
	svc.Stop(context.Background())
}

func TestAttach_RecordsGoalChangesAndRetirements(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	hc := hook.NewHookCenter()
	svc.Attach(hc)
	w := newWorld(t, hc)

	w.SetGoal(1, 4)
	w.SetGoal(1, 4) // unchanged, no trace
	w.SetGoal(0, 2)
	w.Retire(1, 0)

	// Stop flushes remaining entries
	svc.Stop(context.Background())

	var traces []model.GoalTrace
	require.NoError(t, db.Order("id").Find(&traces).Error)
	require.Len(t, traces, 3)

	assert.Equal(t, model.TraceGoalChanged, traces[0].Kind)
	assert.Equal(t, 1, traces[0].ActorID)
	assert.Equal(t, 0, traces[0].OldGoal)
	assert.Equal(t, 4, traces[0].NewGoal)
	assert.True(t, traces[0].Accepted)
	assert.Equal(t, -1, traces[0].ByActor)

	assert.Equal(t, 0, traces[1].ActorID)
	assert.False(t, traces[1].Accepted, "the template rejects goal changes")

	assert.Equal(t, model.TraceRetired, traces[2].Kind)
	assert.Equal(t, 1, traces[2].ActorID)
	assert.Equal(t, 0, traces[2].ByActor)
	assert.Contains(t, string(traces[2].Detail), `"by":0`)
}

func TestDetach_StopsRecording(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	hc := hook.NewHookCenter()
	svc.Attach(hc)
	svc.Detach(hc)
	w := newWorld(t, hc)

	w.SetGoal(1, 4)
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.GoalTrace{}).Count(&count)
	assert.Zero(t, count)
	assert.False(t, hc.Has(hook.AfterGoalChanged))
}

func TestOnEvent_IgnoresOtherPayloads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	data, err := svc.onEvent(context.Background(), hook.ActorSpeech, world.Speech{Actor: 1, Line: 10})
	require.NoError(t, err)
	assert.Equal(t, world.Speech{Actor: 1, Line: 10}, data)
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.GoalTrace{}).Count(&count)
	assert.Zero(t, count)
}

func TestRecord_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	// 100 entries trigger an immediate batch flush
	for i := 0; i < 100; i++ {
		svc.Record(&model.GoalTrace{Kind: model.TraceGoalChanged, ActorID: i % 5, NewGoal: i})
	}
	svc.Stop(context.Background())

	var count int64
	db.Model(&model.GoalTrace{}).Count(&count)
	assert.Equal(t, int64(100), count)
}

func TestRecord_TimerFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	defer svc.Stop(context.Background())

	svc.Record(&model.GoalTrace{Kind: model.TraceGoalChanged, ActorID: 3})

	// the 2s ticker flushes without Stop
	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.GoalTrace{}).Count(&count)
		return count == 1
	}, 4*time.Second, 100*time.Millisecond)
}

func TestTraces_NewestFirstPerActor(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	for i := 1; i <= 5; i++ {
		svc.Record(&model.GoalTrace{Kind: model.TraceGoalChanged, ActorID: i % 2, NewGoal: i})
	}
	svc.Stop(context.Background())

	traces, err := svc.Traces(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, 5, traces[0].NewGoal)
	assert.Equal(t, 3, traces[1].NewGoal)

	all, err := svc.Traces(context.Background(), -1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStop_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	svc.Stop(context.Background())
	svc.Stop(context.Background()) // must not panic
}

func TestRecord_DropsWhenFull(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	// only verifies the channel-full path does not panic or block
	for i := 0; i < 1030; i++ {
		svc.Record(&model.GoalTrace{Kind: model.TraceGoalChanged})
	}
	svc.Stop(context.Background())
}
