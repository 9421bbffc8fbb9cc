// Package main runs the poll HTTP server: chat event ingestion, catalog and reporting APIs,
// the completion WebSocket feed, and graceful shutdown.
package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-survey/backend/config"
	"github.com/aura-survey/backend/internal/auth"
	"github.com/aura-survey/backend/internal/captcha"
	"github.com/aura-survey/backend/internal/chat"
	"github.com/aura-survey/backend/internal/middleware"
	"github.com/aura-survey/backend/internal/polls"
	"github.com/aura-survey/backend/internal/realtime"
	"github.com/aura-survey/backend/internal/reports"
	"github.com/aura-survey/backend/internal/session"
	"github.com/aura-survey/backend/internal/worker"
	"github.com/aura-survey/backend/pkg/database"
	"github.com/aura-survey/backend/pkg/queue"
	"github.com/aura-survey/backend/pkg/redis"
	"github.com/aura-survey/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var st stores
	if cfg.Session.UseMemory() {
		logger.Warn("using in-memory stores; data is lost on restart")
		st = memoryStores()
	} else {
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool, logger); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		st = postgresStores(pool)
	}

	// Redis is optional only for the in-memory driver; shared stores need shared locks.
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		if !cfg.Session.UseMemory() {
			logger.Fatal("redis", zap.Error(err))
		}
		logger.Warn("redis unavailable, using in-process locks", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	var (
		locker     session.Locker = session.NewKeyedMutex()
		suppressor captcha.Suppressor
		notifiers  session.Notifiers
		hub        *realtime.Hub
		pubsub     *realtime.RedisPubSub
	)
	if rdb != nil {
		locker = redis.NewLocker(rdb, "session:lock:", cfg.Session.LockTTL, cfg.Session.LockWait)
		suppressor = redis.NewChallengeSuppressor(rdb)
		pubsub = realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub)
		jobQueue := queue.NewQueue(rdb.Client, queue.Options{
			Name:       cfg.Worker.CompletionQueue,
			DLQ:        cfg.Worker.DeadLetterQueue,
			MaxRetries: cfg.Worker.MaxRetries,
		}, logger)
		notifiers = append(notifiers, hub, worker.NewQueueNotifier(jobQueue))
	} else {
		suppressor = captcha.NewMemorySuppressor(nil)
		hub = realtime.NewHub(logger, nil)
		notifiers = append(notifiers, hub)
	}

	var channel session.Channel = chat.Discard{Logger: logger}
	if cfg.Chat.BaseURL != "" {
		channel = chat.NewHTTPChannel(cfg.Chat.BaseURL, cfg.Chat.Token, cfg.Chat.Timeout, logger)
	} else {
		logger.Warn("CHAT_BASE_URL not set, outbound messages are discarded")
	}

	src := rand.NewSource(time.Now().UnixNano())
	gate := captcha.NewGate(captcha.GateConfig{
		MinAnswered:    cfg.Captcha.MinAnswered,
		EveryNth:       cfg.Captcha.EveryNth,
		Probability:    cfg.Captcha.Probability,
		SuppressWindow: cfg.Captcha.SuppressWindow,
	}, suppressor, src)
	challenges := captcha.NewService(st.challenges, captcha.NewGenerator(rand.NewSource(time.Now().UnixNano()+1)), logger, nil)

	ctrl := session.NewController(session.Deps{
		Catalog:           st.catalog,
		Respondents:       st.respondents,
		Answers:           st.answers,
		Ledger:            st.ledger,
		Gate:              gate,
		Challenges:        challenges,
		Channel:           channel,
		Locker:            locker,
		Notifier:          notifiers,
		Logger:            logger,
		NativePolls:       cfg.Chat.NativePolls,
		DeferRewardNotice: rdb != nil,
	})

	authHandler := auth.NewHandler(jwtService, logger)
	eventHandler := chat.NewHandler(ctrl, logger)
	pollHandler := polls.NewHandler(st.catalog, logger)
	reportHandler := reports.NewHandler(st.reports, logger)

	listenCtx, stopListen := context.WithCancel(context.Background())
	defer stopListen()
	if pubsub != nil {
		if err := hub.Listen(listenCtx, pubsub); err != nil {
			logger.Fatal("completion feed subscribe", zap.Error(err))
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/v1")
	api.Use(middleware.JWT(jwtService))
	{
		// Service tokens
		api.POST("/tokens", middleware.RequireRole(auth.RoleAdmin), authHandler.Issue)

		// Transport adapter
		api.POST("/events", middleware.RequireRole(auth.RoleTransport), eventHandler.Event)

		// Catalog
		api.GET("/polls", middleware.RequireRole(auth.RoleOperator), pollHandler.List)
		api.GET("/polls/:id", middleware.RequireRole(auth.RoleOperator), pollHandler.Get)
		api.POST("/polls", middleware.RequireRole(auth.RoleAdmin), pollHandler.Create)

		// Reporting
		api.GET("/polls/:id/respondents", middleware.RequireRole(auth.RoleOperator), reportHandler.PollRespondents)
		api.GET("/respondents/:id", middleware.RequireRole(auth.RoleOperator), reportHandler.Respondent)
		api.GET("/identities/:id/balance", middleware.RequireRole(auth.RoleOperator), reportHandler.IdentityBalance)

		// Completion feed (token in query for browsers)
		api.GET("/ws/completions", middleware.RequireRole(auth.RoleOperator), realtime.ServeWs(hub, logger))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port),
			zap.Bool("memory_store", cfg.Session.UseMemory()), zap.Bool("native_polls", cfg.Chat.NativePolls))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopListen()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
