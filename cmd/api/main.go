package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filmly/internal/admin"
	"filmly/internal/auth"
	"filmly/internal/cache"
	"filmly/internal/catalog"
	"filmly/internal/config"
	"filmly/internal/factors"
	"filmly/internal/health"
	"filmly/internal/monitoring"
	"filmly/internal/plattform"
	"filmly/internal/rating"
	"filmly/internal/recommend"
	"filmly/internal/sequence"
	httpserver "filmly/internal/server/http"
	"filmly/pkg/logger"
	"filmly/pkg/styles"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient := connectMongoWithRetry(ctx, cfg.Mongo)
	if mongoClient == nil {
		log.Fatal(styles.SprintfS("error", "[API] Could not connect to MongoDB, giving up"))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Warn("disconnecting mongo", zap.Error(err))
		}
	}()

	rdb := cache.NewRedisClient(cfg.Redis)
	if err := rdb.Ping(ctx).Err(); err != nil {
		// The similarity cache is an optimization; run without it.
		logger.Warn("redis unreachable, similarity cache disabled", zap.Error(err))
		rdb = nil
	}

	links, err := catalog.LoadLinks(cfg.Data.LinksPath)
	if err != nil {
		logger.Warn("links.csv not loaded, id translation limited to the movie collection",
			zap.String("path", cfg.Data.LinksPath), zap.Error(err))
		links = catalog.NewLinks(nil)
	}

	db := cfg.Mongo.Database
	moviesRepo := catalog.NewMongoRepository(mongoClient.GetCollection(db, "movies"))
	counters := sequence.NewMongoCounterStore(mongoClient.GetCollection(db, "counters"))
	ratingsColl := mongoClient.GetCollection(db, "ratings")

	alloc := sequence.New(counters)
	if err := alloc.EnsureInitialized(ctx, sequence.MovieIDKey, func(ctx context.Context) (int64, error) {
		maxID, err := moviesRepo.MaxMlID(ctx)
		if err != nil {
			return 0, err
		}
		return maxID + 1, nil
	}); err != nil {
		log.Fatalf("initializing movie id counter: %v", err)
	}
	if err := alloc.EnsureInitialized(ctx, sequence.UserIDKey, func(context.Context) (int64, error) {
		return 1, nil
	}); err != nil {
		log.Fatalf("initializing user id counter: %v", err)
	}

	store := factors.NewStore(cfg.Model.SimilarTopK)
	if cfg.Model.Source != "" {
		if snap, err := store.Load(ctx, cfg.Model.Source); err != nil {
			// Serve 503s on the recommendation routes until an admin reload
			// succeeds.
			logger.Warn("model not loaded at startup",
				zap.String("source", cfg.Model.Source), zap.Error(err))
		} else {
			logger.Info("model loaded",
				zap.Int("items", snap.Len()), zap.Int("dims", snap.Dims()))
		}
	}

	tmdb := catalog.NewTMDBClient(cfg.TMDB)
	resolver := catalog.NewResolver(moviesRepo, links, alloc, tmdb, cfg.TMDB.Timeout)

	tokens := auth.NewJWTTokenManager(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(auth.NewMongoRepository(mongoClient.GetCollection(db, "users")), tokens, alloc)

	ratingSvc := rating.NewService(rating.NewMongoRepository(ratingsColl), resolver, moviesRepo, links)
	recSvc := recommend.NewService(recommend.NewMongoRepository(ratingsColl), store, moviesRepo, links, rdb, cfg.Model.SimilarCacheTTL)

	router := httpserver.NewRouter(httpserver.Deps{
		Tokens:     tokens,
		Auth:       auth.NewHandler(authSvc),
		Rating:     rating.NewHandler(ratingSvc),
		Recommend:  recommend.NewHandler(recSvc),
		Admin:      admin.NewHandler(store, cfg.Auth.AdminKey, cfg.Model.Source),
		Health:     health.NewHandler(health.NewService(mongoClient, rdb, store)),
		Monitoring: monitoring.NewHandler(monitoring.NewService(mongoClient, store)),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		styles.PrintFS("info", "[API] Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(styles.SprintfS("error", "[API] Server error: %v", err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
		os.Exit(1)
	}
}

func connectMongoWithRetry(ctx context.Context, cfg config.MongoConfig) *plattform.MongoService {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			logger.Error("context canceled before MongoDB connection", zap.Error(ctx.Err()))
			return nil
		default:
		}

		attempt++
		client, err := plattform.NewClient(ctx, cfg.URI)
		if err == nil {
			if attempt > 1 {
				logger.Info("MongoDB connection established", zap.Int("attempts", attempt))
			}
			return client
		}

		logger.Warn("MongoDB connection failed", zap.Int("attempt", attempt), zap.Error(err))
		if cfg.MaxRetries > 0 && attempt >= cfg.MaxRetries {
			logger.Error("MongoDB retry limit reached", zap.Int("maxRetries", cfg.MaxRetries))
			return nil
		}

		select {
		case <-time.After(cfg.RetryInterval):
		case <-ctx.Done():
			logger.Error("context canceled while waiting to retry MongoDB", zap.Error(ctx.Err()))
			return nil
		}
	}
}
