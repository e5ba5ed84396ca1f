package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/api"
	"resumekit/internal/auth"
	"resumekit/internal/config"
	"resumekit/internal/database"
	"resumekit/internal/plugin"
	"resumekit/internal/render"
	"resumekit/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	log.Printf("database migrated")

	registry := plugin.NewRegistry(logger)
	for _, p := range plugin.Builtins() {
		registry.MustRegister(p)
	}

	if cfg.Plugins.EnableDBPlugins {
		if err := registry.ReloadDBPlugins(context.Background(), db); err != nil {
			// 数据库插件加载失败只影响动态区块，内建插件照常服务
			logger.Error("initial db plugin reload failed", slog.Any("error", err))
		}
	}

	authService, err := auth.NewAuthServiceFromFiles(
		cfg.Auth.PrivateKeyPath,
		cfg.Auth.PublicKeyPath,
		time.Duration(cfg.Auth.AccessTTLMins)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
	)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	renderer := render.MustNew()

	if cfg.Plugins.EnableDBPlugins {
		go subscribeReloads(context.Background(), redisClient, registry, db, cfg.Plugins.ReloadChannel, logger)
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, cfg, db, registry, renderer, authService, redisClient, logger, storageClient)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}

// subscribeReloads 监听重载信号，让多个 api 进程的注册表保持一致。
func subscribeReloads(ctx context.Context, redisClient *redis.Client, registry *plugin.Registry, db *gorm.DB, channel string, logger *slog.Logger) {
	pubsub := redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	logger.Info("listening for plugin reload signals", slog.String("channel", channel))
	for msg := range pubsub.Channel() {
		logger.Info("plugin reload signal received", slog.String("payload", msg.Payload))
		if err := registry.ReloadDBPlugins(ctx, db); err != nil {
			logger.Error("reload db plugins failed", slog.Any("error", err))
		}
	}
}
