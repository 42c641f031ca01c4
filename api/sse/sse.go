// Package sse streams world hook events to the debug console as server-sent
// events. Events travel hook → Relay → pub/sub → Handler, so several server
// processes sharing a Redis see the same stream.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/actorai/cache"
	"github.com/kasuganosora/actorai/plugin/hook"
	"go.uber.org/zap"
)

const (
	eventsChannel = "actorai:events"
	backlogKey    = "actorai:events:recent"
	backlogSize   = 100
	hookName      = "sse"
)

// Event is the JSON envelope of one hook event.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    time.Time       `json:"at"`
}

// Relay forwards hook events to pub/sub and keeps a short backlog in the cache.
// Hooks fire inside the frame, so the relay only queues; a worker goroutine
// does the I/O.
type Relay struct {
	pubsub cache.PubSub
	c      cache.Cache
	ch     chan Event
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewRelay creates a Relay and starts its worker.
func NewRelay(pubsub cache.PubSub, c cache.Cache, logger *zap.Logger) *Relay {
	r := &Relay{
		pubsub: pubsub,
		c:      c,
		ch:     make(chan Event, 512),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Attach subscribes the relay to every world event.
func (r *Relay) Attach(hc *hook.HookCenter) {
	hc.RegisterEach(hook.Events, 1000, hookName, r.onEvent)
}

func (r *Relay) onEvent(_ context.Context, event string, data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		r.logger.Warn("sse: encode event", zap.String("event", event), zap.Error(err))
		return data, nil
	}
	select {
	case r.ch <- Event{Event: event, Data: raw, At: time.Now()}:
	default:
		r.logger.Warn("sse relay queue full, dropping event", zap.String("event", event))
	}
	return data, nil
}

// Stop drains queued events and stops the worker.
func (r *Relay) Stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	r.wg.Wait()
}

func (r *Relay) worker() {
	defer r.wg.Done()
	for {
		select {
		case ev := <-r.ch:
			r.publish(ev)
		case <-r.stopCh:
			for {
				select {
				case ev := <-r.ch:
					r.publish(ev)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.pubsub.Publish(ctx, eventsChannel, string(payload)); err != nil {
		r.logger.Warn("sse publish failed", zap.Error(err))
	}
	if err := r.c.LPush(ctx, backlogKey, string(payload)); err != nil {
		r.logger.Warn("sse backlog push failed", zap.Error(err))
		return
	}
	_ = r.c.LTrim(ctx, backlogKey, 0, backlogSize-1)
}

// Recent returns up to n backlog events, oldest first.
func Recent(ctx context.Context, c cache.Cache, n int) ([]string, error) {
	if n <= 0 || n > backlogSize {
		n = backlogSize
	}
	items, err := c.LRange(ctx, backlogKey, 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// Handler handles the SSE endpoint.
type Handler struct {
	pubsub    cache.PubSub
	c         cache.Cache
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, c cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, c: c, keepalive: 30 * time.Second, logger: logger}
}

// ServeSSE handles GET /api/debug/events?backlog=N. It replays up to N recent
// events, then streams live ones until the client goes away. Authentication is
// left to the route group's middleware.
func (h *Handler) ServeSSE(c *gin.Context) {
	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, eventsChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	if n := queryInt(c, "backlog"); n > 0 {
		recent, err := Recent(c.Request.Context(), h.c, n)
		if err != nil {
			h.logger.Warn("sse backlog read failed", zap.Error(err))
		}
		for _, p := range recent {
			writeEvent(c, p)
		}
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			writeEvent(c, msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

// writeEvent names the SSE event after the hook event in the envelope.
func writeEvent(c *gin.Context, payload string) {
	var ev Event
	name := "event"
	if json.Unmarshal([]byte(payload), &ev) == nil && ev.Event != "" {
		name = ev.Event
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, payload)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
