package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/jonathan/interview-insights/internal/cache"
	"github.com/jonathan/interview-insights/internal/cache/redis"
	"github.com/jonathan/interview-insights/internal/config"
	"github.com/jonathan/interview-insights/internal/logger"
	"github.com/jonathan/interview-insights/internal/messaging"
	"github.com/jonathan/interview-insights/internal/pipeline"
	"github.com/jonathan/interview-insights/internal/service"
	"github.com/jonathan/interview-insights/internal/store"
	"github.com/jonathan/interview-insights/internal/telemetry"
	"github.com/jonathan/interview-insights/internal/terms"
)

const serviceName = "interview-insights"

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if termsPath != "" {
		cfg.TermsFile = termsPath
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.NewWithLevel(cfg.Env, cfg.LogLevel)
}

// newAssembler loads the term tables and builds the pipeline.
func newAssembler(cfg *config.Config, log *zap.Logger, extra ...pipeline.Option) (*pipeline.Assembler, error) {
	tables, err := terms.Load(cfg.TermsFile)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded term tables", zap.String("source", tables.Source()))

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithWorkers(cfg.PipelineWorkers),
		pipeline.WithTracer(telemetry.GetTracer("interview-insights/pipeline")),
	}
	return pipeline.New(tables, append(opts, extra...)...)
}

// newStoreAssembler issues ids after the highest one already in st.
func newStoreAssembler(ctx context.Context, cfg *config.Config, log *zap.Logger, st store.Store) (*pipeline.Assembler, error) {
	ids, err := service.NewIDSource(ctx, st)
	if err != nil {
		return nil, err
	}
	return newAssembler(cfg, log, pipeline.WithIDSource(ids))
}

func newServiceAssembler(cfg *config.Config, log *zap.Logger, st store.Store) (*pipeline.Assembler, error) {
	return newStoreAssembler(context.Background(), cfg, log, st)
}

// newStatsCache uses redis when REDIS_ADDR is set and an in-process cache otherwise.
func newStatsCache(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) cache.Cache {
	opts := cache.Options{
		DefaultTTL:    cfg.StatsCacheTTL,
		RedisURL:      cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}

	var c cache.Cache
	if cfg.RedisAddr != "" {
		rc := redis.New(opts)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := rc.Ping(ctx); err != nil {
					log.Warn("Redis unreachable, stats will be computed per request", zap.Error(err))
				}
				return nil
			},
		})
		log.Info("Using redis stats cache", zap.String("addr", cfg.RedisAddr))
		c = rc
	} else {
		c = cache.NewMemory(opts)
	}

	lc.Append(fx.Hook{OnStop: func(context.Context) error { return c.Close() }})
	return c
}

func newStore(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	st, err := store.Open(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return st.Close() }})
	return st, nil
}

// newOptionalNATS connects only when NATS_URL is set.
func newOptionalNATS(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		return nil, nil
	}
	return newNATS(lc, cfg, log)
}

func newNATS(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*nats.Conn, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("NATS_URL is required")
	}
	nc, err := messaging.Connect(cfg, serviceName, log)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to NATS", zap.String("url", nc.ConnectedUrl()))
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return nc.Drain() }})
	return nc, nil
}

func newPublisher(nc *nats.Conn, cfg *config.Config, log *zap.Logger) messaging.Publisher {
	if nc == nil {
		return messaging.NopPublisher{}
	}
	return messaging.NewPublisher(nc, cfg.ProcessedSubject, log)
}

func newService(a *pipeline.Assembler, st store.Store, c cache.Cache, pub messaging.Publisher, cfg *config.Config, log *zap.Logger) *service.Service {
	return service.New(a, st,
		service.WithCache(c, cfg.StatsCacheTTL),
		service.WithPublisher(pub),
		service.WithLogger(log),
	)
}

// startTracing installs the OTLP exporter for the lifetime of the app.
func startTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) {
	var shutdown func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, serviceName, cfg.OTelCollectorURL, log)
			return err
		},
		OnStop: func(context.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})
}

// baseOptions wires everything shared by serve and worker.
func baseOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newServiceAssembler,
			newStatsCache,
			newStore,
			newService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Invoke(startTracing),
	)
}

// runApp starts app, waits for ctx to end, then stops it.
func runApp(ctx context.Context, app *fx.App) error {
	if err := app.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}
