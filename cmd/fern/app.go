package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/db"
	"github.com/Ramsey-B/fern/internal/repositories/asset"
	"github.com/Ramsey-B/fern/internal/repositories/entry"
	"github.com/Ramsey-B/fern/internal/repositories/entrystatus"
	"github.com/Ramsey-B/fern/internal/repositories/form"
	"github.com/Ramsey-B/fern/internal/repositories/relation"
	assetsservice "github.com/Ramsey-B/fern/internal/services/assets"
	chartsservice "github.com/Ramsey-B/fern/internal/services/charts"
	entriesservice "github.com/Ramsey-B/fern/internal/services/entries"
	"github.com/Ramsey-B/fern/internal/services/entrystatuses"
	formsservice "github.com/Ramsey-B/fern/internal/services/forms"
	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/session"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

// app owns the process dependencies. Fields stay nil for anything the
// configuration leaves disabled.
type app struct {
	cfg      *config.Config
	logger   ectologger.Logger
	startup  *startup.Startup
	db       database.DB
	redis    *redis.Client
	producer *kafka.Producer
	tracer   *tracing.Provider
	gcs      *assets.GCSStorage
	storages map[string]assets.Storage
	temp     assets.Storage
}

type services struct {
	assets   *assetsservice.Service
	forms    *formsservice.Service
	statuses *entrystatuses.Service
	entries  *entriesservice.Service
	charts   *chartsservice.Service
	sessions session.Provider
	assetsDB *asset.Repository
}

func newApp(cfg *config.Config, logger ectologger.Logger) *app {
	return &app{
		cfg:      cfg,
		logger:   logger,
		startup:  startup.NewStartup(logger, cfg.StartupMaxAttempts),
		storages: map[string]assets.Storage{},
	}
}

// start brings up the dependencies in order. migrate controls whether the
// schema is migrated before anything else uses the database.
func (a *app) start(ctx context.Context, migrate bool) error {
	cfg := a.cfg

	a.startup.AddDependency(&startup.Dependency{
		Name: "tracing",
		OnStart: func(ctx context.Context) error {
			provider, err := tracing.NewProvider(ctx, tracing.ProviderConfig{
				ServiceName: cfg.AppName,
				Exporter:    cfg.Tracing.Exporter,
				OTLP: exporters.OTLPConfig{
					Endpoint: cfg.Tracing.Endpoint,
					Protocol: cfg.Tracing.Protocol,
					Insecure: cfg.Tracing.Insecure,
					Timeout:  cfg.Tracing.Timeout,
				},
			})
			if err != nil {
				return err
			}
			a.tracer = provider
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if a.tracer == nil {
				return nil
			}
			return a.tracer.Shutdown(ctx)
		},
	})

	a.startup.AddDependency(&startup.Dependency{
		Name: "database",
		OnStart: func(ctx context.Context) error {
			conn, err := database.Connect(ctx, database.ConnectionConfig{
				Driver:          cfg.Database.Driver,
				Host:            cfg.Database.Host,
				Port:            cfg.Database.Port,
				User:            cfg.Database.User,
				Password:        cfg.Database.Password,
				Name:            cfg.Database.Name,
				SSLMode:         cfg.Database.SSLMode,
				Path:            cfg.Database.Path,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, a.logger)
			if err != nil {
				return err
			}
			a.db = conn
			return nil
		},
		OnStop: func(context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	})

	if migrate {
		a.startup.AddDependency(&startup.Dependency{
			Name:     "migrations",
			Requires: []string{"database"},
			OnStart: func(context.Context) error {
				return a.migrate()
			},
		})
	}

	if cfg.Redis.Host != "" {
		a.startup.AddDependency(&startup.Dependency{
			Name: "redis",
			OnStart: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, redis.Config{
					Host:     cfg.Redis.Host,
					Port:     cfg.Redis.Port,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				}, a.logger)
				if err != nil {
					return err
				}
				a.redis = client
				return nil
			},
			OnStop: func(context.Context) error {
				if a.redis == nil {
					return nil
				}
				return a.redis.Close()
			},
		})
	}

	if cfg.Kafka.Brokers != "" {
		a.startup.AddDependency(&startup.Dependency{
			Name: "kafka",
			OnStart: func(context.Context) error {
				a.producer = kafka.NewProducer(kafka.ParseConfig(cfg.Kafka.Brokers, cfg.Kafka.Topic), a.logger)
				return nil
			},
			OnStop: func(context.Context) error {
				if a.producer == nil {
					return nil
				}
				return a.producer.Close()
			},
		})
	}

	a.startup.AddDependency(&startup.Dependency{
		Name: "storage",
		OnStart: func(ctx context.Context) error {
			local, err := assets.NewLocalStorage(cfg.Uploads.LocalRoot)
			if err != nil {
				return err
			}
			a.storages[models.StorageLocal] = local

			if a.temp, err = assets.NewLocalStorage(cfg.Uploads.TempDir); err != nil {
				return err
			}

			if cfg.Uploads.GCSBucket != "" {
				gcs, err := assets.NewGCSStorage(ctx, assets.GCSConfig{
					Bucket:          cfg.Uploads.GCSBucket,
					Prefix:          cfg.Uploads.GCSPrefix,
					CredentialsFile: cfg.Uploads.GCSCredentialsFile,
				})
				if err != nil {
					return err
				}
				a.gcs = gcs
				a.storages[models.StorageGCS] = gcs
			}
			return nil
		},
		OnStop: func(context.Context) error {
			if a.gcs == nil {
				return nil
			}
			return a.gcs.Close()
		},
	})

	return a.startup.Start(ctx)
}

func (a *app) stop(ctx context.Context) {
	if err := a.startup.Stop(ctx); err != nil {
		a.logger.WithError(err).Error("failed to stop dependencies")
	}
}

func (a *app) migrate() error {
	driverName, driver, err := database.NewMigrationDriver(a.db)
	if err != nil {
		return err
	}

	migrationConfig := &database.MigrationConfig{
		Version:      a.cfg.Database.MigrationVersion,
		Force:        a.cfg.Database.MigrationForce,
		AutoRollback: a.cfg.Database.MigrationAutoRollback,
	}
	if a.cfg.Database.MigrationFolderPath != "" {
		migrationConfig.MigrationFolderPath = a.cfg.Database.MigrationFolderPath
	} else {
		migrationConfig.FS = db.Migrations
		migrationConfig.Dir = db.Dir(driverName)
	}

	return database.NewMigrationService(a.logger, migrationConfig).Migrate(driverName, driver)
}

// services wires repositories and services over the started dependencies.
func (a *app) services() (*services, error) {
	assetRepo := asset.NewRepository(a.db, a.logger)
	entryRepo := entry.NewRepository(a.db, a.logger)

	assetService := assetsservice.NewService(assetRepo, a.storages, a.temp, a.cfg.Uploads.ASCIIFilenames, a.logger)
	formService := formsservice.NewService(a.db, form.NewRepository(a.db, a.logger), fields.Dependencies{
		Logger:         a.logger,
		Assets:         assetService,
		Entries:        entryRepo,
		ASCIIFilenames: a.cfg.Uploads.ASCIIFilenames,
	}, a.logger)
	statusService := entrystatuses.NewService(a.db, entrystatus.NewRepository(a.db, a.logger), a.logger)

	bus := events.NewBus()
	if a.producer != nil {
		events.NewEmitter(a.producer, a.logger).Register(bus)
	}

	forwarderConfig := httpclient.DefaultConfig()
	forwarderConfig.Timeout = a.cfg.Forwarder.Timeout
	forwarderConfig.InsecureSkipVerify = a.cfg.Forwarder.InsecureSkipVerify

	entryService := entriesservice.NewService(a.cfg.Entries, entriesservice.Dependencies{
		DB:        a.db,
		Logger:    a.logger,
		Forms:     formService,
		Statuses:  statusService,
		Entries:   entryRepo,
		Relations: relation.NewRepository(a.db, a.logger),
		Bus:       bus,
		Forwarder: httpclient.NewClient(forwarderConfig, a.logger),
	})

	chartService, err := chartsservice.NewService(a.cfg.Charts, entryRepo, a.logger)
	if err != nil {
		return nil, err
	}

	var sessions session.Provider = session.NewMemoryProvider()
	if a.redis != nil {
		sessions = session.NewRedisProvider(a.redis, a.cfg.Redis.SessionTTL)
	}

	return &services{
		assets:   assetService,
		forms:    formService,
		statuses: statusService,
		entries:  entryService,
		charts:   chartService,
		sessions: sessions,
		assetsDB: assetRepo,
	}, nil
}

func parseStorage(storage string) (string, error) {
	switch storage {
	case models.StorageLocal, models.StorageGCS:
		return storage, nil
	default:
		return "", fmt.Errorf("unknown storage %q, expected %s or %s", storage, models.StorageLocal, models.StorageGCS)
	}
}

func folderSource(id int64) string {
	return assets.SourcePrefix + strconv.FormatInt(id, 10)
}
