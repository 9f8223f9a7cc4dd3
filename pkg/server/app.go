package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Ramsey-B/clover/config"
	accuracysnapshotrepo "github.com/Ramsey-B/clover/internal/repositories/accuracysnapshot"
	dedupconfigrepo "github.com/Ramsey-B/clover/internal/repositories/dedupconfig"
	duplicatematchrepo "github.com/Ramsey-B/clover/internal/repositories/duplicatematch"
	listingrepo "github.com/Ramsey-B/clover/internal/repositories/listing"
	reviewitemrepo "github.com/Ramsey-B/clover/internal/repositories/reviewitem"
	"github.com/Ramsey-B/clover/pkg/accuracy"
	"github.com/Ramsey-B/clover/pkg/cache"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/dedup"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/phash"
	"github.com/Ramsey-B/clover/pkg/review"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

// Version is stamped at build time.
var Version = "dev"

// App is the composition root: it owns every infrastructure client and
// domain service, and brings them up and down in dependency order.
type App struct {
	cfg    *config.Config
	logger ectologger.Logger
	boot   *startup.Startup

	sqlDB     *sqlx.DB
	db        database.DB
	cache     *cache.Client
	producer  *kafka.Producer
	container ectocontainer.DIContainer
	server    *Server

	orchestrator *dedup.Orchestrator
	reviewSvc    *review.Service
	accuracySvc  *accuracy.Service
	backfiller   *phash.Backfiller

	shutdownTracing func(context.Context) error
}

func NewApp(cfg *config.Config, logger ectologger.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		boot:   startup.NewStartup(logger, cfg.StartupMaxAttempts),
	}
}

// Start brings every dependency up in order with retry.
func (a *App) Start(ctx context.Context) error {
	a.boot.AddDependency(startup.NewFunc("tracing", nil, a.startTracing, a.stopTracing))
	a.boot.AddDependency(startup.NewFunc("database", nil, a.startDatabase, a.stopDatabase))
	serviceNeeds := []string{"database", "kafka"}
	if a.cfg.RedisEnabled {
		a.boot.AddDependency(startup.NewFunc("redis", nil, a.startRedis, a.stopRedis))
		serviceNeeds = append(serviceNeeds, "redis")
	}
	a.boot.AddDependency(startup.NewFunc("kafka", nil, a.startKafka, a.stopKafka))
	a.boot.AddDependency(startup.NewFunc("services", serviceNeeds, a.startServices, nil))
	a.boot.AddDependency(startup.NewFunc("image-hash-backfill", []string{"services"},
		func(ctx context.Context) error { return a.backfiller.Start(ctx) },
		func(ctx context.Context) error { return a.backfiller.Stop(ctx) },
	))
	a.boot.AddDependency(startup.NewFunc("http-server", []string{"services"}, a.startHTTP, a.stopHTTP))

	return a.boot.Start(ctx)
}

// Stop tears everything down in reverse order.
func (a *App) Stop(ctx context.Context) error {
	return a.boot.Stop(ctx)
}

// Orchestrator returns the duplicate detection orchestrator.
func (a *App) Orchestrator() *dedup.Orchestrator { return a.orchestrator }

// ReviewService returns the review workflow service.
func (a *App) ReviewService() *review.Service { return a.reviewSvc }

// AccuracyService returns the accuracy metrics service.
func (a *App) AccuracyService() *accuracy.Service { return a.accuracySvc }

func (a *App) startTracing(ctx context.Context) error {
	if !a.cfg.TracingEnabled {
		return nil
	}
	shutdown, err := tracing.InitProvider(ctx, a.cfg.AppName, exporters.OTLPConfig{
		Endpoint: a.cfg.OTLPEndpoint,
		Protocol: a.cfg.OTLPProtocol,
		Insecure: a.cfg.OTLPInsecure,
		Timeout:  a.cfg.OTLPTimeout,
	})
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown
	return nil
}

func (a *App) stopTracing(ctx context.Context) error {
	if a.shutdownTracing == nil {
		return nil
	}
	return a.shutdownTracing(ctx)
}

func (a *App) startDatabase(ctx context.Context) error {
	db, err := database.Connect(database.ConnectionOptions{
		Driver:          a.cfg.DatabaseDriver,
		Host:            a.cfg.DatabaseHost,
		Port:            a.cfg.DatabasePort,
		UserName:        a.cfg.DatabaseUserName,
		Password:        a.cfg.DatabasePassword,
		Name:            a.cfg.DatabaseName,
		SSLMode:         a.cfg.DatabaseSSLMode,
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	})
	if err != nil {
		return err
	}

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(a.cfg.DatabaseName, driver); err != nil {
		return err
	}

	a.sqlDB = db
	a.db = database.NewDatabaseInstance(db, a.logger)
	return nil
}

func (a *App) stopDatabase(ctx context.Context) error {
	if a.sqlDB == nil {
		return nil
	}
	return a.sqlDB.Close()
}

func (a *App) startRedis(ctx context.Context) error {
	client, err := cache.NewClient(cache.Config{
		Host:            a.cfg.RedisHost,
		Port:            a.cfg.RedisPort,
		Password:        a.cfg.RedisPassword,
		DB:              a.cfg.RedisDB,
		ImageHashTTL:    a.cfg.ImageHashCacheTTL,
		ActiveConfigTTL: a.cfg.ActiveConfigTTL,
	}, a.logger)
	if err != nil {
		return err
	}
	a.cache = client
	return nil
}

func (a *App) stopRedis(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

func (a *App) startKafka(ctx context.Context) error {
	a.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      a.cfg.KafkaBrokers,
		Topic:        a.cfg.KafkaOutputTopic,
		BatchSize:    a.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: a.cfg.KafkaRequiredAcks,
		Compression:  a.cfg.KafkaCompression,
	}, a.logger)
	return nil
}

func (a *App) stopKafka(ctx context.Context) error {
	if a.producer == nil {
		return nil
	}
	return a.producer.Close()
}

func (a *App) startServices(ctx context.Context) error {
	listings := listingrepo.NewRepository(a.db, a.logger)
	matches := duplicatematchrepo.NewRepository(a.db, a.logger)
	reviews := reviewitemrepo.NewRepository(a.db, a.logger)
	configs := dedupconfigrepo.NewRepository(a.db, a.logger)
	snapshots := accuracysnapshotrepo.NewRepository(a.db, a.logger)

	emitter := events.NewEmitter(a.producer, a.logger)
	engine := matching.NewEngine(a.cfg.MatchWorkerCount, a.logger)

	// a typed nil *cache.Client must not become a non-nil interface
	var configCache dedup.ConfigCache
	var hashCache phash.HashCache
	if a.cache != nil {
		configCache = a.cache
		hashCache = a.cache
	}

	a.orchestrator = dedup.NewOrchestrator(dedup.OrchestratorConfig{
		MaxCandidates: a.cfg.MaxCandidates,
		BatchWorkers:  a.cfg.BatchWorkerCount,
	}, engine, listings, matches, reviews, configs, emitter, configCache, a.logger)

	a.reviewSvc = review.NewService(reviews, matches, emitter, a.logger)
	a.accuracySvc = accuracy.NewService(matches, reviews, snapshots, a.logger)

	fetcher := phash.NewFetcher(phash.FetcherConfig{
		Workers: a.cfg.ImageFetchWorkerCount,
		Timeout: time.Duration(a.cfg.ImageFetchTimeoutSecs) * time.Second,
	}, hashCache, a.logger)
	a.backfiller = phash.NewBackfiller(phash.BackfillConfig{
		Interval:  a.cfg.HashBackfillInterval,
		Lookback:  a.cfg.HashBackfillLookback,
		BatchSize: a.cfg.HashBackfillBatchSize,
	}, listings, fetcher, a.logger)

	return a.registerDependencies(configs)
}

// registerDependencies places every handler-resolved service into a fresh
// dependency container. The container id is unique per App so a restarted
// boot sequence never collides with an earlier registration.
func (a *App) registerDependencies(configs *dedupconfigrepo.Repository) error {
	container, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:           fmt.Sprintf("%s-%s", a.cfg.AppName, uuid.NewString()),
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{Enabled: false},
	})
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[*dedup.Orchestrator](container, a.orchestrator); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*review.Service](container, a.reviewSvc); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*accuracy.Service](container, a.accuracySvc); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*dedupconfigrepo.Repository](container, configs); err != nil {
		return err
	}
	if a.cache != nil {
		if err := ectoinject.RegisterInstance[*cache.Client](container, a.cache); err != nil {
			return err
		}
	}

	a.container = container
	return nil
}

func (a *App) startHTTP(ctx context.Context) error {
	var redisPing interface {
		Ping(ctx context.Context) error
	}
	if a.cache != nil {
		redisPing = a.cache
	}
	checker := health.NewChecker(a.sqlDB, redisPing, Version)
	a.server = NewServer(a.cfg, a.logger, checker, a.container.GetContainerID())
	return a.server.Start(ctx)
}

func (a *App) stopHTTP(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Stop(ctx)
}
