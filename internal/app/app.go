package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	pb "github.com/godilite/feedback-insights/api/v1"
	"github.com/godilite/feedback-insights/internal/config"
	handler "github.com/godilite/feedback-insights/internal/grpc"
	"github.com/godilite/feedback-insights/internal/metrics"
	"github.com/godilite/feedback-insights/internal/repository"
	"github.com/godilite/feedback-insights/internal/service"
	"github.com/godilite/feedback-insights/internal/textinsight"
	"github.com/godilite/feedback-insights/pkg/cache"
	dbbuilder "github.com/godilite/feedback-insights/pkg/database"
	grpcsrv "github.com/godilite/feedback-insights/pkg/grpc/server"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger        *zap.Logger
	closers       []namedCloser
	cache         *cache.Cache
	grpcServer    *grpcsrv.Server
	metricsServer *http.Server
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	storage, err := a.openStorage(ctx, cfg.Store)
	if err != nil {
		a.closeAll(ctx)
		return nil, err
	}

	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.Redis.Addr),
		cache.WithPassword(cfg.Redis.Password),
		cache.WithDB(cfg.Redis.DB),
	)
	if err != nil {
		a.closeAll(ctx)
		return nil, fmt.Errorf("cache init failed: %w", err)
	}
	a.cache = cacheClient
	logger.Info("Cache client initialized", zap.String("addr", cfg.Redis.Addr))

	// A typed nil would defeat the service's "no insighter" check.
	var insighter service.TextInsighter
	if cfg.Insight.Enabled() {
		client, err := textinsight.New(
			textinsight.WithAPIKey(cfg.Insight.APIKey),
			textinsight.WithBaseURL(cfg.Insight.BaseURL),
			textinsight.WithModel(cfg.Insight.Model),
			textinsight.WithTemperature(cfg.Insight.Temperature),
			textinsight.WithMaxTokens(cfg.Insight.MaxTokens),
			textinsight.WithTimeout(cfg.Insight.Timeout),
			textinsight.WithBreaker(cfg.Insight.BreakerFailures, cfg.Insight.BreakerTimeout),
			textinsight.WithLogger(logger),
		)
		if err != nil {
			a.closeAll(ctx)
			return nil, fmt.Errorf("text insight init failed: %w", err)
		}
		insighter = client
		logger.Info("Text insight enabled", zap.String("model", cfg.Insight.Model))
	} else {
		logger.Warn("Text insight disabled; reports will use the fallback insight")
	}

	insightService := service.NewInsightService(storage, insighter, logger,
		service.WithInsightTimeout(cfg.Insight.Timeout),
	)

	grpcHandlers := handler.NewGRPCHandlers(insightService, cacheClient, logger, cfg.Redis.TTL)

	serverOpts := []grpcsrv.Option{
		grpcsrv.WithPort(cfg.GRPC.Port),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPC.Reflection),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	}
	if cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, grpcsrv.WithMetrics(metrics.RecordGRPCRequest))
	}

	grpcServer, err := grpcsrv.New(serverOpts...)
	if err != nil {
		a.closeAll(ctx)
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(pb.ServiceName, func(s *grpc.Server) {
		pb.RegisterFeedbackAnalyticsServer(s, grpcHandlers)
	})
	a.grpcServer = grpcServer

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg config.StoreConfig) (service.FeedbackRepository, error) {
	switch cfg.Driver {
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect failed: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"mongo", client.Disconnect})

		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return nil, fmt.Errorf("mongo ping failed: %w", err)
		}

		repo := repository.NewMongoFeedbackRepository(client.Database(cfg.MongoDatabase), cfg.MongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		a.logger.Info("Mongo store initialized",
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.MongoCollection))
		return repo, nil

	default:
		db, err := dbbuilder.New(ctx,
			dbbuilder.WithDriver(cfg.Driver),
			dbbuilder.WithDataSource(cfg.Path),
			dbbuilder.WithSchema(repository.Schema),
		)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		a.closers = append(a.closers, namedCloser{"database", func(context.Context) error { return db.Close() }})
		a.logger.Info("Database pool initialized", zap.String("path", cfg.Path))
		return repository.NewFeedbackRepository(db), nil
	}
}

func (a *App) closeAll(ctx context.Context) {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			a.logger.Error("shutdown error", zap.String("component", c.name), zap.Error(err))
		}
	}
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	a.logger.Info("application starting")

	a.grpcServer.Start()

	metricsErr := make(chan error, 1)
	if a.metricsServer != nil {
		go func() {
			a.logger.Info("metrics server starting", zap.String("addr", a.metricsServer.Addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsErr <- err
			}
		}()
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-sigCtx.Done():
	case err := <-metricsErr:
		runErr = fmt.Errorf("metrics server: %w", err)
	}

	a.logger.Info("application shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.grpcServer.Shutdown(ctx); err != nil {
		a.logger.Error("gRPC shutdown error", zap.Error(err))
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Error("metrics shutdown error", zap.Error(err))
		}
	}

	a.closeAll(ctx)

	if ctx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	} else {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return runErr
}
