package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/email"
	"github.com/MrEthical07/storefront/internal/config"
	"github.com/MrEthical07/storefront/internal/httpapi"
	"github.com/MrEthical07/storefront/internal/logger"
	"github.com/MrEthical07/storefront/kv"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log, cleanup := logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Rotate: logger.Rotate{
			Enable:     cfg.Log.File != "",
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	}, os.Stdout)
	defer cleanup()

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	builder := storefront.New().
		WithConfig(cfg.Engine()).
		WithLogger(log.Named("engine")).
		WithAuditSink(storefront.NewZapSink(log.Named("audit")))

	// redis backs the login throttle even when records live in SQL
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		builder = builder.WithRedis(rdb)
	}

	if cfg.Store.Backend == "sql" {
		builder = builder.WithStore(mustOpenSQL(cfg, log))
		log.Info("sql store ready", zap.String("driver", cfg.DB.Driver))
	}

	if cfg.SMTP.Host != "" {
		mailer, err := email.NewSMTP(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
		if err != nil {
			log.Fatal("smtp", zap.Error(err))
		}
		builder = builder.WithMailer(mailer)
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatal("engine build", zap.Error(err))
	}
	defer engine.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := engine.Ping(pingCtx); err != nil {
		log.Warn("store not reachable at startup", zap.Error(err))
	}
	cancelPing()

	router, _ := httpapi.NewRouter(engine, log, httpapi.Options{
		RequestTimeout: cfg.App.HTTP.RequestTimeout,
		MaxBodyBytes:   cfg.App.HTTP.MaxBodyBytes,
		RateLimitRPS:   cfg.App.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.App.HTTP.RateLimitBurst,
		MaxConcurrent:  cfg.App.HTTP.MaxConcurrent,
		CORSOrigins:    cfg.App.HTTP.CORSOrigins,
	})

	srv := httpapi.BuildServer(cfg.Addr(), router, httpapi.Timeouts{
		Read:  cfg.App.HTTP.ReadTimeout,
		Write: cfg.App.HTTP.WriteTimeout,
		Idle:  cfg.App.HTTP.IdleTimeout,
	})

	go func() {
		log.Info("storefront api starting",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Backend),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("storefront api stopped")
}

func mustOpenSQL(cfg *config.Config, l *zap.Logger) *kv.SQL {
	db, err := kv.OpenSQL(kv.SQLOptions{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("sql open", zap.Error(err))
	}

	store := kv.NewSQL(db, cfg.Store.Namespace)
	if cfg.DB.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx); err != nil {
			l.Fatal("sql migrate", zap.Error(err))
		}
	}
	return store
}
