package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"lecture-slides-backend/internal/ai"
	"lecture-slides-backend/internal/config"
	"lecture-slides-backend/internal/extract"
	"lecture-slides-backend/internal/logger"
	"lecture-slides-backend/internal/search"
	"lecture-slides-backend/internal/telemetry"
	"lecture-slides-backend/middleware"
	"lecture-slides-backend/routes"
	"lecture-slides-backend/services"
)

// App owns the process-wide clients and the services built on them. Clients are
// created once at startup and shared by every request.
type App struct {
	Config  *config.Config
	Metrics *telemetry.Metrics

	Mongo *mongo.Client
	ES    *elasticsearch.Client
	Redis *redis.Client

	Slides  *services.SlideService
	Courses *services.CourseService
	Notes   *services.NoteService
	Folders *services.FolderService

	closeEncoder func() error
}

// New connects to MongoDB, Elasticsearch and (when rate limiting is on) Redis in
// parallel, makes sure the slide index exists and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	a := &App{Config: cfg, Metrics: metrics}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		client, err := config.ConnectMongoDB(gctx, cfg)
		a.Mongo = client
		return err
	})
	g.Go(func() error {
		es, err := config.NewElasticsearchClient(gctx, cfg)
		a.ES = es
		return err
	})
	if cfg.RateLimitEnabled {
		g.Go(func() error {
			rdb, err := config.NewRedisClient(gctx, cfg)
			a.Redis = rdb
			return err
		})
	}
	if err := g.Wait(); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	store := NewStore(a.ES, cfg, metrics)
	if err := store.EnsureIndex(ctx, search.SlideMappings(cfg.EmbeddingMode, cfg.VectorDimensions)); err != nil {
		a.Close(context.Background())
		return nil, fmt.Errorf("failed to prepare index %s: %w", cfg.SlidesIndex, err)
	}

	slides, closeEncoder, err := NewSlideService(ctx, cfg, store, metrics)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	a.Slides = slides
	a.closeEncoder = closeEncoder

	db := a.Mongo.Database(cfg.DBName)
	a.Courses = services.NewCourseService(db)
	a.Notes = services.NewNoteService(db)
	a.Folders = services.NewFolderService(db)

	logger.Info("Application initialized",
		"index", cfg.SlidesIndex,
		"embedding_mode", cfg.EmbeddingMode,
		"extraction_policy", cfg.ExtractionPolicy,
		"store_pdf_binary", cfg.StorePDFBinary,
		"rate_limit", cfg.RateLimitEnabled,
	)

	return a, nil
}

// NewStore binds the Elasticsearch client to the configured slide index.
func NewStore(es *elasticsearch.Client, cfg *config.Config, metrics *telemetry.Metrics) *search.Store {
	return search.NewStore(es, search.Options{
		Index:          cfg.SlidesIndex,
		Pipeline:       cfg.IndexPipeline(),
		Refresh:        cfg.IndexRefresh,
		MaxResults:     cfg.SearchMaxResults,
		SearchExcludes: search.DefaultSearchExcludes,
		Metrics:        metrics,
	})
}

// NewSlideService builds the ingestion pipeline over index. The returned func releases
// the embedding client, if one was created.
func NewSlideService(ctx context.Context, cfg *config.Config, index search.Index, metrics *telemetry.Metrics) (*services.SlideService, func() error, error) {
	extractor := extract.NewExtractor(extract.Options{
		Policy:   extract.Policy(cfg.ExtractionPolicy),
		Validate: cfg.ValidatePDF,
	})

	closeEncoder := func() error { return nil }

	// Only dense mode computes vectors in-process; sparse mode leaves it to the ingest pipeline.
	var encoder ai.Encoder
	if cfg.EmbeddingMode == config.EmbeddingModeDense {
		gemini, err := ai.NewGeminiEncoder(ctx, cfg, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create embedding encoder: %w", err)
		}
		encoder = gemini
		closeEncoder = gemini.Close
	}

	return services.NewSlideService(index, extractor, encoder, cfg.StorePDFBinary, metrics), closeEncoder, nil
}

// Router assembles the HTTP surface.
func (a *App) Router(version string) *gin.Engine {
	cfg := a.Config

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(a.Metrics))
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	if a.Redis != nil {
		router.Use(middleware.RateLimitMiddleware(a.Redis, middleware.RateLimitConfig{
			Requests: cfg.RateLimitReqs,
			Window:   time.Duration(cfg.RateLimitWindow) * time.Second,
		}))
	}

	routes.SetupHealthRoutes(router, version, a.readinessChecks()...)
	routes.SetupSlideRoutes(router, a.Slides, cfg.MaxFileSize)
	routes.SetupCourseRoutes(router, a.Courses)
	routes.SetupNoteRoutes(router, a.Notes)
	routes.SetupFolderRoutes(router, a.Folders)

	return router
}

func (a *App) readinessChecks() []routes.ReadinessCheck {
	var checks []routes.ReadinessCheck
	if a.Mongo != nil {
		checks = append(checks, routes.ReadinessCheck{
			Name:  "mongodb",
			Check: func(ctx context.Context) error { return a.Mongo.Ping(ctx, nil) },
		})
	}
	if a.ES != nil {
		checks = append(checks, routes.ReadinessCheck{
			Name:  "elasticsearch",
			Check: func(ctx context.Context) error { return config.PingElasticsearch(ctx, a.ES) },
		})
	}
	return checks
}

// Close releases every client that was opened. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.closeEncoder != nil {
		errs = append(errs, a.closeEncoder())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.Mongo != nil {
		errs = append(errs, a.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
