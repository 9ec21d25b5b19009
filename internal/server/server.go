package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fintrace/fintrace/config"
	"github.com/fintrace/fintrace/internal/chunkcache"
	"github.com/fintrace/fintrace/internal/hydrate"
	"github.com/fintrace/fintrace/internal/ingest"
	"github.com/fintrace/fintrace/internal/searchidx"
	"github.com/fintrace/fintrace/internal/store"
	"github.com/fintrace/fintrace/models"
)

func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	dsn := cfg.Storage.Postgres.DSN()
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		baseLogger.Printf("migrate: %v", err)
	}

	// Initialize shared dependencies (top-level DI)
	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	rdb, err := chunkcache.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
		cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
	if err != nil {
		return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
	}
	cache := chunkcache.New(rdb, cfg.Storage.Redis.ChunkTTL)

	var idx *searchidx.Index
	if cfg.Search.Enabled {
		idx, err = searchidx.NewMemOnly()
		if err != nil {
			return err
		}
		if err := warmIndex(ctx, st, idx); err != nil {
			baseLogger.Printf("index warmup: %v", err)
		}
	}

	// The hydrator resolves against a remote chunk backend when one is
	// configured, otherwise against the local store.
	var fetcher hydrate.Fetcher
	if cfg.Upstream.BaseURL != "" {
		fetcher = hydrate.NewHTTPFetcher(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, cfg.Upstream.Retries, cfg.Upstream.Backoff)
	} else {
		fetcher = &storeFetcher{store: st, cache: cache}
	}
	hyd := hydrate.NewHydrator(fetcher, log.New(log.Writer(), "[HYDRATE] ", log.LstdFlags))

	api := e.Group("/api")
	ch := &ChunksHandler{Store: st, Cache: cache, Index: idx}
	ch.Register(api.Group("/chunks"))
	ah := &AnswersHandler{Hyd: hyd}
	ah.Register(api.Group("/answers"))
	qh := &QuestionsHandler{Store: st}
	qh.Register(api.Group("/questions"))
	wh := &WatchlistsHandler{Store: st}
	wh.Register(api.Group("/watchlists"))
	ih := &IngestHandler{
		Store:    st,
		Cache:    cache,
		Index:    idx,
		Fetch:    ingest.Fetcher{Timeout: cfg.Ingest.FetchTimeout},
		MaxChars: cfg.Ingest.MaxChunkChars,
	}
	ih.Register(api.Group("/ingest"))

	if cfg.Scheduler.Enabled {
		sched := &Scheduler{
			Store:   st,
			Cache:   cache,
			Rdb:     rdb,
			Stop:    make(chan struct{}),
			Tick:    cfg.Scheduler.TickInterval,
			LockTTL: cfg.Scheduler.LockTTL,
		}
		sched.Start()
	}

	return e.Start(cfg.Server.Address)
}

// warmIndex seeds the in-memory search index from recent chunks.
func warmIndex(ctx context.Context, st *store.Store, idx *searchidx.Index) error {
	for _, typ := range []models.ChunkType{models.ChunkTypeEarningsCall, models.ChunkTypeExpertInterview} {
		recs, err := st.ListRecentChunks(ctx, string(typ), 1000)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := idx.Add(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
