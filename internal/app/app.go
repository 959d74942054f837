package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/acquire"
	config "github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	v1Http "github.com/Vinay8git/Visual-Product-Matcher-App/internal/delivery/v1/http"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/encoder"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/index"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/infrastructure/kafka"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/infrastructure/mlservice"
	memRepo "github.com/Vinay8git/Visual-Product-Matcher-App/internal/repository/memory"
	s3Repo "github.com/Vinay8git/Visual-Product-Matcher-App/internal/repository/minio"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/repository/pgdb"
	pgdbConv "github.com/Vinay8git/Visual-Product-Matcher-App/internal/repository/pgdb/converter"
	redisRepo "github.com/Vinay8git/Visual-Product-Matcher-App/internal/repository/redis"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/clients"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/closer"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

func Run() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	appCloser := closer.NewCloser(0)

	db, err := initPGDB(logger, cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize database")
		os.Exit(1)
	}
	appCloser.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	prConv := pgdbConv.NewProductConverter()
	outboxConv := pgdbConv.NewOutboxEventConverter()

	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)
	catalogRepo := pgdb.NewCatalogRepo(db.Pool, prConv, outboxRepo)

	cacheRepo, err := initImageCache(logger, cfg, appCloser)
	if err != nil {
		logger.Errorf(err, "failed to initialize image cache")
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		os.Exit(1)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		logger.Errorf(err, "failed to ensure kafka topic")
		os.Exit(1)
	}
	appCloser.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	ml := mlservice.NewMLService(cfg.Ml, logger)
	enc := encoder.NewService(ml, cfg.Index.VectorSize)
	acquirer := acquire.NewAcquirer(cacheRepo, cfg.Cache.FetchTimeout, logger)

	store := index.NewStore(cfg.Index.Path, logger)
	if _, err := store.Load(); err != nil {
		logger.Errorf(err, "failed to load index from %s", cfg.Index.Path)
		os.Exit(1)
	}

	searchUC := usecase.NewSearchUC(acquirer, enc, store, producer, logger, cfg.Search.Deadline)
	productUC := usecase.NewRebuildCoordinator(
		catalogRepo,
		acquirer,
		enc,
		store,
		producer,
		logger,
		cfg.Index.Model,
		cfg.Rebuild.MaxConcurrent,
		cfg.Rebuild.FailureThreshold,
	)

	// Индекс приводится в соответствие каталогу до приема трафика
	if err := productUC.EnsureIndex(context.Background()); err != nil {
		logger.Errorf(err, "failed to ensure index on startup")
		os.Exit(1)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	worker := kafka.NewOutboxWorker(outboxRepo, logger, producer, db.Dsn)
	worker.Start(workerCtx)
	appCloser.Add(func(ctx context.Context) error {
		workerCancel()
		worker.Stop()
		return nil
	})

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(productUC, searchUC, cfg.Search)

	httpSrv := v1Http.NewServer(r, cfg.Http)
	appCloser.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := appCloser.Close(shutdownCtx); err != nil {
		logger.Warnf("shutdown finished with errors: %v", err)
	}

	logger.Infof("Application shutdown complete")
	if appErr != nil {
		os.Exit(1)
	}
}

// initImageCache выбирает бэкенд кэша изображений по CACHE_BACKEND.
func initImageCache(logger logger.Logger, cfg *config.Config, appCloser *closer.Closer) (usecase.ImageCacheRepository, error) {
	switch cfg.Cache.Backend {
	case "minio":
		minioClient, err := clients.NewMinIOClient(cfg.Minio)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer minioCancel()
		if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		return s3Repo.NewImageCacheRepo(minioClient, cfg.Minio), nil

	case "redis":
		redisClient := clients.NewRedisClient(cfg.Redis)

		redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer redisCancel()
		if err := redisClient.Ping(redisCtx); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		appCloser.Add(func(ctx context.Context) error {
			return redisClient.Client.Close()
		})

		return redisRepo.NewImageCacheRepo(redisClient, cfg.Redis, logger), nil

	default:
		logger.Infof("using in-memory image cache")
		return memRepo.NewImageCacheRepo(), nil
	}
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
