package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/actorai/api/rest"
	"github.com/kasuganosora/actorai/audit"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/script"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/plugin/hook"
	"github.com/kasuganosora/actorai/save"
	"github.com/kasuganosora/actorai/scheduler"
	"github.com/kasuganosora/actorai/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

// clicker counts clicks in variable 1 and retaliates when hit.
type clicker struct{ ai.Template }

func (clicker) ClickedByPlayer(w ai.World)          { w.VariableIncrement(1, 1) }
func (clicker) ShotAtAndHit(w ai.World) bool        { return true }
func (clicker) GoalChanged(ai.World, int, int) bool { return true }

type debugEnv struct {
	r      *gin.Engine
	engine *world.Engine
	traces *audit.Service
}

func newDebugRouter(t *testing.T, adminKey string) *debugEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	logger := nopLogger()

	hc := hook.NewHookCenter()
	traces := audit.New(db, logger)
	traces.Attach(hc)
	t.Cleanup(func() { traces.Stop(context.Background()) })

	reg := ai.NewRegistry(3, map[ai.ActorID]ai.Script{2: &clicker{}}, logger)
	w := world.New(reg, nil, nil, world.Options{Player: 0, Seed: 5, Hooks: hc}, logger)
	engine := world.NewEngine(w, logger)
	engine.NewGame()
	engine.Do(func(w *world.World) {
		w.SetHealth(2, 30, 30)
		w.SetTargetable(2, true)
	})

	sched := scheduler.New(logger)
	sched.AddTicker("frame", time.Hour, func(time.Duration) {})
	t.Cleanup(sched.Stop)

	h := rest.NewDebugHandler(
		engine,
		save.New(db, c, engine, time.Hour, logger),
		script.NewSandbox(1, 200*time.Millisecond, logger),
		traces,
		sched,
		logger,
	)

	r := gin.New()
	g := r.Group("/api/debug")
	g.Use(rest.AdminAuth(adminKey))
	h.Register(g)
	return &debugEnv{r: r, engine: engine, traces: traces}
}

func (e *debugEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", "key")
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// ---- AdminAuth ----

func TestAdminAuth_NoKey_Disabled(t *testing.T) {
	// When adminKey is empty, debug endpoints must be disabled (503) so the
	// server cannot be accidentally deployed without protection.
	e := newDebugRouter(t, "")
	w := e.do(http.MethodGet, "/api/debug/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth_WrongKey(t *testing.T) {
	e := newDebugRouter(t, "secret")
	w := e.do(http.MethodGet, "/api/debug/status", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// ---- Status ----

func TestStatus_Structure(t *testing.T) {
	e := newDebugRouter(t, "key")
	e.engine.Tick(66 * time.Millisecond)

	w := e.do(http.MethodGet, "/api/debug/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 1, resp["tick"])
	assert.EqualValues(t, 3, resp["actors"])
	assert.Equal(t, false, resp["inside_script"])
	assert.EqualValues(t, 0, resp["depth"])
	tasks := resp["scheduler_tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "frame", tasks[0].(map[string]interface{})["name"])
}

// ---- Actors ----

func TestListActors(t *testing.T) {
	e := newDebugRouter(t, "key")
	w := e.do(http.MethodGet, "/api/debug/actors", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])
}

func TestGetActor_NotFound(t *testing.T) {
	e := newDebugRouter(t, "key")
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/debug/actors/9", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/api/debug/actors/x", "").Code)
}

func TestSetGoal_ShowsInActorAndTraces(t *testing.T) {
	e := newDebugRouter(t, "key")
	w := e.do(http.MethodPost, "/api/debug/actors/2/goal", `{"goal": 7}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 7, decode(t, w)["goal"])

	// flush the audit queue so the trace is visible
	e.traces.Stop(context.Background())

	w = e.do(http.MethodGet, "/api/debug/actors/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 7, resp["goal"])
	traces := resp["traces"].([]interface{})
	require.Len(t, traces, 1)
	assert.EqualValues(t, 7, traces[0].(map[string]interface{})["new_goal"])
	assert.Equal(t, true, traces[0].(map[string]interface{})["accepted"])
}

func TestSetGoal_MissingBody(t *testing.T) {
	e := newDebugRouter(t, "key")
	w := e.do(http.MethodPost, "/api/debug/actors/2/goal", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClick_GatedByCombat(t *testing.T) {
	e := newDebugRouter(t, "key")
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/actors/2/click", "").Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/actors/2/combat", `{"on": true}`).Code)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/actors/2/click", "").Code)

	w := e.do(http.MethodGet, "/api/debug/variables/1", "")
	assert.EqualValues(t, 1, decode(t, w)["value"])
}

func TestGiveClueAndShare(t *testing.T) {
	e := newDebugRouter(t, "key")
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/actors/1/clue", `{"clue": 4, "from": 0}`).Code)

	w := e.do(http.MethodPost, "/api/debug/actors/1/clue", `{"share": 2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(4)}, decode(t, w)["given"])

	w = e.do(http.MethodGet, "/api/debug/actors/2", "")
	clues := decode(t, w)["clues"].(map[string]interface{})
	assert.Contains(t, clues, "4")

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/debug/actors/1/clue", `{}`).Code)
}

func TestCombat_Shoot(t *testing.T) {
	e := newDebugRouter(t, "key")
	w := e.do(http.MethodPost, "/api/debug/actors/2/combat", `{"shot_by": 0, "hit": true, "damage": 10}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, true, resp["retaliate"])
	assert.EqualValues(t, 20, resp["health"])
}

func TestChangeAnimation(t *testing.T) {
	e := newDebugRouter(t, "key")
	w := e.do(http.MethodPost, "/api/debug/actors/1/animation", `{"mode": 4}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, ai.ModeCombatIdle, decode(t, w)["mode"])
}

// ---- Flags and variables ----

func TestFlags(t *testing.T) {
	e := newDebugRouter(t, "key")
	require.Equal(t, http.StatusOK, e.do(http.MethodPut, "/api/debug/flags/5", `{"value": true}`).Code)
	assert.Equal(t, true, decode(t, e.do(http.MethodGet, "/api/debug/flags/5", ""))["value"])
	require.Equal(t, http.StatusOK, e.do(http.MethodPut, "/api/debug/flags/5", `{"value": false}`).Code)
	assert.Equal(t, false, decode(t, e.do(http.MethodGet, "/api/debug/flags/5", ""))["value"])
}

func TestVariables(t *testing.T) {
	e := newDebugRouter(t, "key")
	require.Equal(t, http.StatusOK, e.do(http.MethodPut, "/api/debug/variables/13", `{"value": 4}`).Code)
	assert.EqualValues(t, 4, decode(t, e.do(http.MethodGet, "/api/debug/variables/13", ""))["value"])
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/api/debug/variables/13", `{}`).Code)
}

// ---- Eval ----

func TestEval(t *testing.T) {
	e := newDebugRouter(t, "key")
	w := e.do(http.MethodPost, "/api/debug/eval", `{"src": "$gameVariables.setValue(2, 9); $gameVariables.value(2) * 2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 18, decode(t, w)["result"])

	w = e.do(http.MethodPost, "/api/debug/eval", `{"src": "throw new Error('x')"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---- Save / load ----

func TestSaveLoad(t *testing.T) {
	e := newDebugRouter(t, "key")
	e.do(http.MethodPut, "/api/debug/variables/3", `{"value": 11}`)

	w := e.do(http.MethodPost, "/api/debug/save", `{"name": "slot"}`)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["id"].(string)

	e.do(http.MethodPut, "/api/debug/variables/3", `{"value": 0}`)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/load/"+id, "").Code)
	assert.EqualValues(t, 11, decode(t, e.do(http.MethodGet, "/api/debug/variables/3", ""))["value"])

	assert.EqualValues(t, 1, decode(t, e.do(http.MethodGet, "/api/debug/saves", ""))["count"])
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/debug/load/nope", "").Code)
}

func TestQuickSaveLoad(t *testing.T) {
	e := newDebugRouter(t, "key")
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/debug/quickload", "").Code)

	e.do(http.MethodPut, "/api/debug/flags/8", `{"value": true}`)
	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/quicksave", "").Code)
	e.do(http.MethodPut, "/api/debug/flags/8", `{"value": false}`)

	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/debug/quickload", "").Code)
	assert.Equal(t, true, decode(t, e.do(http.MethodGet, "/api/debug/flags/8", ""))["value"])
}
