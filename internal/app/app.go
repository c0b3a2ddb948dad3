package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/johnrirwin/bizregistry/internal/auth"
	"github.com/johnrirwin/bizregistry/internal/config"
	"github.com/johnrirwin/bizregistry/internal/images"
	"github.com/johnrirwin/bizregistry/internal/logging"
	"github.com/johnrirwin/bizregistry/internal/metrics"
	"github.com/johnrirwin/bizregistry/internal/moderation"
	"github.com/johnrirwin/bizregistry/internal/notify"
	"github.com/johnrirwin/bizregistry/internal/policy"
	"github.com/johnrirwin/bizregistry/internal/promotions"
	"github.com/johnrirwin/bizregistry/internal/registryapi"
	"github.com/johnrirwin/bizregistry/internal/tracing"
	"github.com/johnrirwin/bizregistry/internal/workflow"
)

// App holds all application dependencies
type App struct {
	Config      *config.Config
	Logger      *logging.Logger
	Credentials *auth.TokenStore
	Registry    *registryapi.Client
	Pipeline    *images.Pipeline
	Uploads     images.PendingStore
	Workflow    *workflow.Service
	Promotions  *promotions.Service

	Tracer        *sdktrace.TracerProvider
	redis         *redis.Client
	metricsServer *http.Server
}

// New creates and initializes a new App instance. Notifications and
// navigation are delivered to notifier and router; nil for either sends them
// to the log.
func New(ctx context.Context, cfg *config.Config, notifier notify.Notifier, router workflow.Router) (*App, error) {
	app := &App{Config: cfg}

	app.Logger = app.initLogger()
	if notifier == nil {
		notifier = notify.NewLog(app.Logger)
	}
	if router == nil {
		router = workflow.NewLogRouter(app.Logger)
	}

	app.Credentials = auth.NewTokenStore(cfg.Auth.Token, cfg.Auth.TokenLeeway, app.Logger)
	app.Credentials.OnLogout(func() {
		app.Logger.Info("Stored token cleared")
	})
	if sub := app.Credentials.Subject(); sub != "" {
		app.Logger.Debug("Using stored token", logging.WithField("subject", sub))
	}

	app.Tracer = app.initTracer()
	otel.SetTracerProvider(app.Tracer)

	app.Registry = registryapi.NewClient(registryapi.Config{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		TracerProvider: app.Tracer,
	}, app.Credentials, app.Logger)

	app.Pipeline = app.initPipeline(ctx)
	app.Uploads = app.initUploadStore(ctx)

	app.Workflow = workflow.NewService(workflow.Deps{
		Transport:   app.Registry,
		Credentials: app.Credentials,
		Notifier:    notifier,
		Router:      router,
		Pipeline:    app.Pipeline,
		Store:       app.Uploads,
		Classifier:  policy.NewClassifier(cfg.Status.Synonyms),
		CountryCode: cfg.Phone.CountryCode,
		Logger:      app.Logger,
	})

	app.Promotions = promotions.NewService(app.Registry, app.Pipeline, app.Credentials, app.Logger)

	return app, nil
}

// StartMetrics serves Prometheus metrics in the background when an address
// is configured.
func (a *App) StartMetrics() {
	if a.Config.Metrics.Addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsServer = &http.Server{
		Addr:              a.Config.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.Logger.Info("Starting metrics server", logging.WithField("addr", a.Config.Metrics.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("Metrics server error", logging.WithField("error", err.Error()))
		}
	}()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("Metrics server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if err := tracing.Shutdown(ctx, a.Tracer); err != nil {
		a.Logger.Error("Tracer shutdown error", logging.WithField("error", err.Error()))
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error("Redis close error", logging.WithField("error", err.Error()))
		}
	}

	_ = a.Logger.Sync()
	return nil
}

func (a *App) initLogger() *logging.Logger {
	return logging.NewWithFormat(logging.ParseLevel(a.Config.Logging.Level), a.Config.Logging.Format)
}

func (a *App) initTracer() *sdktrace.TracerProvider {
	cfg := tracing.Config{
		ServiceName: "bizctl",
		Exporter:    a.Config.Tracing.Exporter,
		Endpoint:    a.Config.Tracing.Endpoint,
		SampleRatio: a.Config.Tracing.SampleRatio,
	}
	tp, err := tracing.NewProvider(cfg, a.Logger)
	if err != nil {
		a.Logger.Warn("Tracing exporter unavailable, spans will not be exported", logging.WithField("error", err.Error()))
		cfg.Exporter = tracing.ExporterNone
		tp, _ = tracing.NewProvider(cfg, a.Logger)
	}
	return tp
}

func (a *App) initPipeline(ctx context.Context) *images.Pipeline {
	limits := images.Limits{
		MaxBytes:    a.Config.Images.MaxBytes,
		MinWidth:    a.Config.Images.MinWidth,
		MinHeight:   a.Config.Images.MinHeight,
		CarouselCap: a.Config.Images.CarouselCap,
		Concurrency: a.Config.Images.Concurrency,
	}

	if !a.Config.Moderation.Enabled {
		return images.NewPipeline(limits, a.Logger)
	}

	// Flags below half the block score are not returned.
	source, err := moderation.NewRekognition(ctx, a.Config.Moderation.AWSRegion, float32(a.Config.Moderation.RejectConfidence/2))
	if err != nil {
		a.Logger.Warn("Image moderation unavailable, continuing without it", logging.WithField("error", err.Error()))
		return images.NewPipeline(limits, a.Logger)
	}

	a.Logger.Info("Image moderation enabled", logging.WithFields(map[string]interface{}{
		"region":            a.Config.Moderation.AWSRegion,
		"reject_confidence": a.Config.Moderation.RejectConfidence,
		"allow":             a.Config.Moderation.AllowCategories,
	}))
	screener := moderation.NewScreener(source, moderation.Policy{
		BlockAt: a.Config.Moderation.RejectConfidence,
		Allow:   a.Config.Moderation.AllowCategories,
	}, a.Logger)
	return images.NewPipeline(limits, a.Logger, images.WithScreener(screener, a.Config.Moderation.Timeout))
}

func (a *App) initUploadStore(ctx context.Context) images.PendingStore {
	switch a.Config.Uploads.Backend {
	case "redis":
		a.Logger.Info("Using Redis upload backend", logging.WithField("addr", a.Config.Uploads.RedisAddr))
		client := redis.NewClient(&redis.Options{Addr: a.Config.Uploads.RedisAddr})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory uploads", logging.WithField("error", err.Error()))
			_ = client.Close()
			return images.NewInMemoryPendingStore(a.Config.Uploads.TTL)
		}
		a.redis = client
		return images.NewRedisPendingStore(client, a.Config.Uploads.TTL)
	default:
		a.Logger.Info("Using in-memory upload backend")
		return images.NewInMemoryPendingStore(a.Config.Uploads.TTL)
	}
}
