package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/actorai/game/script"
	"github.com/kasuganosora/actorai/game/world"
	"github.com/kasuganosora/actorai/save"
	"go.uber.org/zap"
)

// GetFlag returns one game flag.
// GET /api/debug/flags/:id
func (h *DebugHandler) GetFlag(c *gin.Context) {
	id, ok := intParam(c)
	if !ok {
		return
	}
	var v bool
	h.engine.Do(func(w *world.World) { v = w.FlagQuery(id) })
	c.JSON(http.StatusOK, gin.H{"id": id, "value": v})
}

// PutFlag sets or resets one game flag.
// PUT /api/debug/flags/:id {"value": true}
func (h *DebugHandler) PutFlag(c *gin.Context) {
	id, ok := intParam(c)
	if !ok {
		return
	}
	var req struct {
		Value *bool `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.engine.Do(func(w *world.World) {
		if *req.Value {
			w.FlagSet(id)
		} else {
			w.FlagReset(id)
		}
	})
	c.JSON(http.StatusOK, gin.H{"id": id, "value": *req.Value})
}

// GetVariable returns one global variable.
// GET /api/debug/variables/:id
func (h *DebugHandler) GetVariable(c *gin.Context) {
	id, ok := intParam(c)
	if !ok {
		return
	}
	var v int
	h.engine.Do(func(w *world.World) { v = w.VariableQuery(id) })
	c.JSON(http.StatusOK, gin.H{"id": id, "value": v})
}

// PutVariable sets one global variable.
// PUT /api/debug/variables/:id {"value": 3}
func (h *DebugHandler) PutVariable(c *gin.Context) {
	id, ok := intParam(c)
	if !ok {
		return
	}
	var req struct {
		Value *int `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.engine.Do(func(w *world.World) { w.VariableSet(id, *req.Value) })
	c.JSON(http.StatusOK, gin.H{"id": id, "value": *req.Value})
}

// Eval runs a JS expression against the world with $gameSwitches,
// $gameVariables and $actors bound.
// POST /api/debug/eval {"src": "$gameVariables.value(13)"}
func (h *DebugHandler) Eval(c *gin.Context) {
	var req struct {
		Src string `json:"src" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		result interface{}
		err    error
	)
	h.engine.Do(func(w *world.World) {
		result, err = h.sandbox.Eval(c.Request.Context(), req.Src, w)
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, script.ErrTimeout) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ListSaves returns every save slot, newest first.
// GET /api/debug/saves
func (h *DebugHandler) ListSaves(c *gin.Context) {
	slots, err := h.saves.List(c.Request.Context())
	if err != nil {
		h.logger.Error("debug: list saves", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saves": slots, "count": len(slots)})
}

// Save writes a new slot.
// POST /api/debug/save {"name": "before the rooftop"}
func (h *DebugHandler) Save(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Name == "" {
		req.Name = "debug"
	}
	slot, err := h.saves.Save(c.Request.Context(), req.Name)
	if err != nil {
		h.logger.Error("debug: save", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": slot.ID, "name": slot.Name, "tick": slot.Tick})
}

// Load restores a slot.
// POST /api/debug/load/:id
func (h *DebugHandler) Load(c *gin.Context) {
	err := h.saves.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, save.ErrSlotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "save not found"})
		return
	}
	if err != nil {
		h.logger.Error("debug: load", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// QuickSave writes the cache quicksave.
// POST /api/debug/quicksave
func (h *DebugHandler) QuickSave(c *gin.Context) {
	if err := h.saves.QuickSave(c.Request.Context()); err != nil {
		h.logger.Error("debug: quicksave", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quicksave failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// QuickLoad restores the cache quicksave.
// POST /api/debug/quickload
func (h *DebugHandler) QuickLoad(c *gin.Context) {
	err := h.saves.QuickLoad(c.Request.Context())
	if errors.Is(err, save.ErrNoQuickSave) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no quicksave"})
		return
	}
	if err != nil {
		h.logger.Error("debug: quickload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quickload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
