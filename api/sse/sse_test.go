package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/plugin/hook"
	"github.com/kasuganosora/actorai/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newWorld(hc *hook.HookCenter) *world.World {
	reg := ai.NewRegistry(2, nil, zap.NewNop())
	return world.New(reg, nil, nil, world.Options{Player: 0, Seed: 1, Hooks: hc}, zap.NewNop())
}

func TestRelay_BacklogKeepsOrder(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	r := NewRelay(ps, c, zap.NewNop())
	hc := hook.NewHookCenter()
	r.Attach(hc)
	w := newWorld(hc)

	w.SetGoal(1, 3)
	w.PutInSet(1, 10)
	r.Stop()

	recent, err := Recent(context.Background(), c, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	var first Event
	require.NoError(t, json.Unmarshal([]byte(recent[0]), &first))
	assert.Equal(t, hook.AfterGoalChanged, first.Event)
	var gc world.GoalChange
	require.NoError(t, json.Unmarshal(first.Data, &gc))
	assert.Equal(t, world.GoalChange{Actor: 1, Old: 0, New: 3}, gc)

	var second Event
	require.NoError(t, json.Unmarshal([]byte(recent[1]), &second))
	assert.Equal(t, hook.ActorEnteredSet, second.Event)
}

func TestRelay_BacklogTrimmed(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	r := NewRelay(ps, c, zap.NewNop())
	hc := hook.NewHookCenter()
	r.Attach(hc)
	w := newWorld(hc)

	for g := 1; g <= backlogSize+20; g++ {
		w.SetGoal(1, g)
	}
	r.Stop()

	recent, err := Recent(context.Background(), c, 0)
	require.NoError(t, err)
	assert.Len(t, recent, backlogSize)
}

// readEvent reads lines until an "event:" line with the given name and
// returns the following data line.
func readEvent(t *testing.T, sc *bufio.Scanner, name string) string {
	t.Helper()
	for sc.Scan() {
		if sc.Text() == "event: "+name {
			require.True(t, sc.Scan())
			return strings.TrimPrefix(sc.Text(), "data: ")
		}
	}
	t.Fatalf("stream ended before event %q: %v", name, sc.Err())
	return ""
}

func TestServeSSE_BacklogThenLive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, ps := testutil.SetupTestCache(t)
	relay := NewRelay(ps, c, zap.NewNop())
	defer relay.Stop()
	hc := hook.NewHookCenter()
	relay.Attach(hc)
	w := newWorld(hc)

	// one event before anybody listens
	w.SetGoal(1, 5)
	require.Eventually(t, func() bool {
		recent, _ := Recent(context.Background(), c, 1)
		return len(recent) == 1
	}, time.Second, 10*time.Millisecond)

	r := gin.New()
	r.GET("/events", NewHandler(ps, c, zap.NewNop()).ServeSSE)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?backlog=10", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	sc := bufio.NewScanner(resp.Body)
	readEvent(t, sc, "connected")
	backlog := readEvent(t, sc, hook.AfterGoalChanged)
	assert.Contains(t, backlog, `"new":5`)

	w.Retire(1, 0)
	live := readEvent(t, sc, hook.ActorRetired)
	assert.Contains(t, live, `"by":0`)
}
