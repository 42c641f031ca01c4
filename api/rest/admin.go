package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/actorai/audit"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/script"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/save"
	"github.com/kasuganosora/actorai/scheduler"
	"go.uber.org/zap"
)

// DebugHandler is the developer console: it inspects and pokes the running
// world. Routes should be protected by AdminAuth middleware.
type DebugHandler struct {
	engine  *world.Engine
	saves   *save.Service
	sandbox *script.Sandbox
	traces  *audit.Service // optional
	sched   *scheduler.Scheduler
	logger  *zap.Logger
}

// NewDebugHandler creates a DebugHandler. traces may be nil.
func NewDebugHandler(
	engine *world.Engine,
	saves *save.Service,
	sandbox *script.Sandbox,
	traces *audit.Service,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) *DebugHandler {
	return &DebugHandler{
		engine:  engine,
		saves:   saves,
		sandbox: sandbox,
		traces:  traces,
		sched:   sched,
		logger:  logger,
	}
}

// Register mounts every debug route on g.
func (h *DebugHandler) Register(g *gin.RouterGroup) {
	g.GET("/status", h.Status)

	g.GET("/actors", h.ListActors)
	g.GET("/actors/:id", h.GetActor)
	g.POST("/actors/:id/goal", h.SetGoal)
	g.POST("/actors/:id/click", h.Click)
	g.POST("/actors/:id/clue", h.GiveClue)
	g.POST("/actors/:id/combat", h.Combat)
	g.POST("/actors/:id/animation", h.ChangeAnimation)

	g.GET("/flags/:id", h.GetFlag)
	g.PUT("/flags/:id", h.PutFlag)
	g.GET("/variables/:id", h.GetVariable)
	g.PUT("/variables/:id", h.PutVariable)

	g.POST("/eval", h.Eval)

	g.GET("/saves", h.ListSaves)
	g.POST("/save", h.Save)
	g.POST("/load/:id", h.Load)
	g.POST("/quicksave", h.QuickSave)
	g.POST("/quickload", h.QuickLoad)
}

// Status returns engine counters and the scheduler task list.
// GET /api/debug/status
func (h *DebugHandler) Status(c *gin.Context) {
	resp := gin.H{}
	h.engine.Do(func(w *world.World) {
		reg := w.Registry()
		resp["tick"] = w.Tick()
		resp["scene"] = w.Scene()
		resp["actors"] = w.Count()
		resp["player"] = w.PlayerActor()
		resp["player_set"] = w.PlayerSet()
		resp["inside_script"] = reg.IsInsideScript()
		resp["depth"] = reg.Depth()
	})
	if h.sched != nil {
		resp["scheduler_tasks"] = h.sched.Tasks()
	}
	c.JSON(http.StatusOK, resp)
}

// actorID parses :id and checks it against the actor table.
func (h *DebugHandler) actorID(c *gin.Context) (ai.ActorID, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	var count int
	h.engine.Do(func(w *world.World) { count = w.Count() })
	if n < 0 || n >= count {
		c.JSON(http.StatusNotFound, gin.H{"error": "actor not found"})
		return 0, false
	}
	return ai.ActorID(n), true
}

func intParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return n, true
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all debug endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable them.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "debug endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
