package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/motohub/workshop-service/config"
	"github.com/motohub/workshop-service/internal/api"
	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/event"
	healthcheck "github.com/motohub/workshop-service/internal/health"
	"github.com/motohub/workshop-service/internal/pkg/broker"
	"github.com/motohub/workshop-service/internal/pkg/cache"
	"github.com/motohub/workshop-service/internal/pkg/i18n"
	"github.com/motohub/workshop-service/internal/pkg/logger"
	"github.com/motohub/workshop-service/internal/pkg/postgres"
	"github.com/motohub/workshop-service/internal/pkg/search"
	"github.com/motohub/workshop-service/internal/realtime"

	invH "github.com/motohub/workshop-service/internal/inventory/handler"
	invRepoPkg "github.com/motohub/workshop-service/internal/inventory/repository"
	invUCPkg "github.com/motohub/workshop-service/internal/inventory/usecase"

	prodH "github.com/motohub/workshop-service/internal/product/handler"
	prodRepoPkg "github.com/motohub/workshop-service/internal/product/repository"
	prodUCPkg "github.com/motohub/workshop-service/internal/product/usecase"

	reqH "github.com/motohub/workshop-service/internal/requisition/handler"
	reqRepoPkg "github.com/motohub/workshop-service/internal/requisition/repository"
	reqUCPkg "github.com/motohub/workshop-service/internal/requisition/usecase"
)

const healthInterval = 15 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg, err := config.Load(".", "./config")
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	i18n.Init()
	if cfg.Server.LocalesDir != "" {
		files, _ := filepath.Glob(filepath.Join(cfg.Server.LocalesDir, "*.json"))
		for _, f := range files {
			if err := i18n.Load(f); err != nil {
				appLogger.Warn("Failed to load locale file", zap.String("file", f), zap.Error(err))
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			appLogger.Fatal("Could not apply migrations", zap.Error(err))
		}
		appLogger.Info("Database schema is up to date")
	}

	// 4. Initialize Redis, falling back to an in-process store
	var store cache.Store = cache.NewMemory()
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, using in-memory cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			store = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5. Realtime hub and event delivery
	hub := realtime.NewHub(appLogger)
	var publisher event.Publisher = hub
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		publisher = event.NewKafkaPublisher(producer)

		// Every instance reads the whole topic so each can serve any dealer.
		hostname, _ := os.Hostname()
		consumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID + "-" + hostname,
		})
		defer consumer.Close()
		go realtime.NewListener(consumer, hub, appLogger).Start(ctx)
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	emitter := event.NewEmitter(publisher, cfg.Server.ServiceName, appLogger)

	// 6. Initialize Elasticsearch
	var index *search.ProductIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search falls back to SQL", zap.Error(err))
		} else {
			index = search.NewProductIndex(esClient, cfg.Elastic.Index, appLogger)
			if err := index.EnsureIndex(ctx); err != nil {
				appLogger.Warn("Could not create product index", zap.String("index", cfg.Elastic.Index), zap.Error(err))
			}
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize UseCases and Handlers
	invUC := invUCPkg.NewInventoryUseCase(invRepoPkg.NewPGRepository(db), store, index, emitter, invUCPkg.Config{
		ListCacheTTL: cfg.Inventory.ListCacheTTL,
		LockTTL:      cfg.Inventory.AdjustLockTTL,
	}, appLogger)
	reqUC := reqUCPkg.NewRequisitionUseCase(reqRepoPkg.NewPGRepository(db), store, index, emitter, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepoPkg.NewPGRepository(db), store, index, cfg.Inventory.DefaultLowStockThreshold, appLogger)

	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Issuer)

	// 8. Health checks shared by gRPC and /healthz
	healthServer := health.NewServer()
	checker := healthcheck.NewChecker(healthServer, cfg.Server.ServiceName, healthInterval, appLogger)
	checker.Add("postgres", db.PingContext)
	if redisClient != nil {
		checker.Add("redis", redisClient.Ping)
	}
	go checker.Run(ctx)

	router := api.SetupRouter(api.Deps{
		ServiceName:  cfg.Server.ServiceName,
		CookieName:   cfg.JWT.CookieName,
		Tokens:       tokens,
		Logger:       appLogger,
		Health:       checker,
		Requisitions: reqH.NewRequisitionHandler(reqUC, appLogger),
		Inventory:    invH.NewInventoryHandler(invUC, appLogger),
		Products:     prodH.NewProductHandler(prodUC, appLogger),
		Realtime:     realtime.NewHandler(hub, tokens, cfg.JWT.CookieName, appLogger),
	})

	// 9. Start gRPC Server
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// 10. Start HTTP Server
	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
