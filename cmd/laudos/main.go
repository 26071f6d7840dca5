// Laudos Core - forensic case management service.
//
// This is the main entry point for the Laudos Core application. It serves
// the REST API for accounts, cases and evidence, backed by SQLite, with an
// optional MQTT event bus and optional InfluxDB telemetry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/laudos/laudos-core/internal/api"
	"github.com/laudos/laudos-core/internal/audit"
	"github.com/laudos/laudos-core/internal/auth"
	"github.com/laudos/laudos-core/internal/cases"
	"github.com/laudos/laudos-core/internal/evidence"
	"github.com/laudos/laudos-core/internal/infrastructure/config"
	"github.com/laudos/laudos-core/internal/infrastructure/database"
	"github.com/laudos/laudos-core/internal/infrastructure/influxdb"
	"github.com/laudos/laudos-core/internal/infrastructure/logging"
	"github.com/laudos/laudos-core/internal/infrastructure/mqtt"
	"github.com/laudos/laudos-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when LAUDOS_CONFIG is unset.
	defaultConfigPath = "configs/config.yaml"

	// dotEnvFile is loaded, if present, before configuration.
	dotEnvFile = ".env"

	// startupCheckTimeout bounds the post-start health checks.
	startupCheckTimeout = 10 * time.Second
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// It returns nil on clean shutdown.
func run(ctx context.Context) error { //nolint:gocognit // startup sequence: each dependency is opened and deferred in order
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Laudos Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := loadDotEnv(dotEnvFile); err != nil {
		return err
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = connectMQTT(cfg.MQTT, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	} else {
		log.Info("MQTT event bus disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	accounts, err := newAccountService(cfg.Security, db)
	if err != nil {
		return err
	}

	if cfg.Security.SeedAdminEmail != "" {
		if _, seedErr := accounts.SeedAdmin(ctx, cfg.Security.SeedAdminEmail, log.Logger); seedErr != nil {
			return fmt.Errorf("seeding admin account: %w", seedErr)
		}
	}

	server, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		ServiceID:   cfg.Service.ID,
		AuditBuffer: cfg.Audit.BufferSize,
		Logger:      log,
		DB:          db,
		Accounts:    accounts,
		Cases:       cases.NewSQLiteRepository(db.DB),
		Evidence:    evidence.NewSQLiteRepository(db.DB),
		AuditRepo:   audit.NewSQLiteRepository(db.DB),
		MQTT:        mqttClient,
		Influx:      influxClient,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	checks := map[string]func(context.Context) error{
		"database": db.HealthCheck,
		"api":      server.HealthCheck,
	}
	if mqttClient != nil {
		checks["mqtt"] = mqttClient.HealthCheck
	}
	if influxClient != nil {
		checks["influxdb"] = influxClient.HealthCheck
	}
	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.
	return nil
}

// loadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LAUDOS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LAUDOS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectMQTT connects to the broker and routes client diagnostics to log.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client, nil
}

// newAccountService wires the credential store, hasher and token service.
func newAccountService(cfg config.SecurityConfig, db *database.DB) (*auth.Service, error) {
	hasher, err := auth.NewHasher(cfg.Password.BcryptCost, cfg.Password.MaxConcurrentHashes)
	if err != nil {
		return nil, fmt.Errorf("creating password hasher: %w", err)
	}
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL())
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	return auth.NewService(auth.NewUserRepository(db.DB), hasher, tokens), nil
}

// healthCheck runs every check concurrently and returns the first failure.
func healthCheck(ctx context.Context, checks map[string]func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			if err := check(gctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
