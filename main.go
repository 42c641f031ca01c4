package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/actorai/api/rest"
	"github.com/kasuganosora/actorai/api/sse"
	"github.com/kasuganosora/actorai/audit"
	"github.com/kasuganosora/actorai/cache"
	"github.com/kasuganosora/actorai/config"
	dbadapter "github.com/kasuganosora/actorai/db"
	"github.com/kasuganosora/actorai/game/actors"
	"github.com/kasuganosora/actorai/game/ai"
	"github.com/kasuganosora/actorai/game/script"
	"github.com/kasuganosora/actorai/game/world"
	mw "github.com/kasuganosora/actorai/middleware"
	"github.com/kasuganosora/actorai/model"
	"github.com/kasuganosora/actorai/plugin/hook"
	"github.com/kasuganosora/actorai/resource"
	"github.com/kasuganosora/actorai/save"
	"github.com/kasuganosora/actorai/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	usingDefaults := false
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err, usingDefaults = config.Default(), nil, true
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()
	if usingDefaults {
		logger.Warn("config file not found, using defaults", zap.String("path", cfgPath))
	}

	// Warn loudly if the debug console will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; debug endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	defer pubsub.Close()
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Content catalog ----
	res := resource.NewLoader(cfg.Game.DataPath)
	if err := res.Load(); err != nil {
		log.Fatalf("resource: %v", err)
	}
	logger.Info("resources loaded",
		zap.Int("cast", len(res.Cast)),
		zap.Int("waypoints", len(res.Waypoints)),
		zap.Int("animations", len(res.Animations)))

	// ---- Actor scripts ----
	scripts, err := actors.Build(res.Cast, map[string]actors.Builder{
		resource.KindJS: script.JSBuilder(res, cfg.Script.Timeout, logger),
	}, logger)
	if err != nil {
		log.Fatalf("actors: %v", err)
	}
	count := max(cfg.Game.ActorCount, res.MaxActorID()+1)
	reg := ai.NewRegistry(count, scripts, logger)

	// ---- World ----
	hooks := hook.NewHookCenter()
	gameState := world.NewGameState(db, logger)
	if err := gameState.LoadFromDB(); err != nil {
		logger.Warn("failed to load game state from DB", zap.Error(err))
	}
	defer gameState.Stop()

	w := world.New(reg, gameState, res, world.Options{
		Player: ai.ActorID(cfg.Game.PlayerActor),
		Seed:   uint64(time.Now().UnixNano()),
		Hooks:  hooks,
	}, logger)
	engine := world.NewEngine(w, logger)
	engine.NewGame()

	// ---- Hook subscribers ----
	auditSvc := audit.New(db, logger)
	auditSvc.Attach(hooks)
	defer auditSvc.Stop(context.Background())

	relay := sse.NewRelay(pubsub, c, logger)
	relay.Attach(hooks)
	defer relay.Stop()

	saves := save.New(db, c, engine, cfg.Game.QuicksaveTTL, logger)
	sandbox := script.NewSandbox(cfg.Script.EvalPoolSize, cfg.Script.Timeout, logger)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("frame", cfg.Game.Tick(), func(dt time.Duration) {
		engine.Tick(dt)
	})
	if cfg.Game.AutosaveIntervalS > 0 {
		sched.AddTicker("autosave", time.Duration(cfg.Game.AutosaveIntervalS)*time.Second, func(time.Duration) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := saves.Autosave(ctx); err != nil {
				logger.Error("autosave failed", zap.Error(err))
			}
		})
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := mw.NewRateLimiter(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateLimitBurst)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go limiter.Sweep(sweepCtx, 5*time.Minute, 10*time.Minute)

	r := gin.New()
	r.Use(mw.TraceID(logger), mw.Logger(logger), mw.Recovery(logger))
	r.Use(limiter.Middleware())

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	debugH := apirest.NewDebugHandler(engine, saves, sandbox, auditSvc, sched, logger)
	sseH := sse.NewHandler(pubsub, c, logger)

	debugG := r.Group("/api/debug")
	debugG.Use(mw.IPWhitelist(cfg.Server.AllowIPs, logger), apirest.AdminAuth(cfg.Server.AdminKey))
	debugH.Register(debugG)
	debugG.GET("/events", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr), zap.Int("actors", count))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
