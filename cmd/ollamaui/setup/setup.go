// Package setup turns resolved configuration into the pieces every ollamaui
// command runs on: a logger, a model server client, history storage and the
// worker pool that records exchanges.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/ollamaui/pkg/cliui"
	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/config"
	"github.com/papercomputeco/ollamaui/pkg/eventstream"
	"github.com/papercomputeco/ollamaui/pkg/eventstream/kafka"
	"github.com/papercomputeco/ollamaui/pkg/eventstream/nop"
	"github.com/papercomputeco/ollamaui/pkg/logger"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/storage"
	"github.com/papercomputeco/ollamaui/pkg/storage/inmemory"
	"github.com/papercomputeco/ollamaui/pkg/storage/postgres"
	"github.com/papercomputeco/ollamaui/pkg/storage/sqlite"
	"github.com/papercomputeco/ollamaui/pkg/worker"
)

// Load resolves configuration for cmd. Values come from the registered flags
// named in keys, then OLLAMAUI_* environment variables, then config.toml,
// then built-in defaults.
func Load(cmd *cobra.Command, keys []string) (*config.Config, *viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	return config.FromViper(v), v, nil
}

// Logger builds the command logger. Logs go to stderr so stdout carries only
// model output; they are colorized on a terminal and JSON when log.json is set.
func Logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	return logger.New(
		logger.WithDebug(debug),
		logger.WithSource(debug),
		logger.WithWriter(os.Stderr),
		logger.WithPretty(cliui.IsTerminal(os.Stderr)),
		logger.WithJSON(cfg.Log.JSON),
	)
}

// WithLogFile fans console out to a JSON log appended to log.file. Without
// log.file, console is returned as is. The returned close func is never nil.
func WithLogFile(console *slog.Logger, cfg *config.Config, debug bool) (*slog.Logger, func() error, error) {
	path := strings.TrimSpace(cfg.Log.File)
	if path == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithWriter(f),
		logger.WithJSON(true),
	)

	return logger.Multi(console, file), f.Close, nil
}

// Timeout parses client.timeout. An empty value means the client default.
func Timeout(cfg *config.Config) (time.Duration, error) {
	raw := strings.TrimSpace(cfg.Client.Timeout)
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", raw)
	}
	return d, nil
}

// Client creates the model server client from client.base_url and
// client.timeout.
func Client(cfg *config.Config, log *slog.Logger) (*ollama.Client, error) {
	timeout, err := Timeout(cfg)
	if err != nil {
		return nil, err
	}

	return ollama.NewClient(ollama.Config{
		BaseURL: cfg.Client.BaseURL,
		Timeout: timeout,
		Logger:  log,
	}), nil
}

// Defaults returns the form defaults held in cfg. A configured schema file is
// validated here so a broken file fails at startup rather than on first use.
func Defaults(cfg *config.Config) (compose.Defaults, error) {
	d := compose.Defaults{
		Model:  cfg.Client.Model,
		System: cfg.Chat.System,
	}

	if cfg.Chat.SchemaFile != "" {
		if _, err := compose.LoadSchemaFile(cfg.Chat.SchemaFile); err != nil {
			return d, err
		}
	}

	return d, nil
}

// Storage opens the history driver selected by storage.provider. configDir is
// used to place the SQLite database next to config.toml when no path is set.
func Storage(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (storage.Driver, error) {
	switch cfg.Storage.Provider {
	case config.StorageMemory:
		log.Debug("using in-memory storage")
		return inmemory.NewDriver(), nil

	case config.StorageSQLite, "":
		path := cfg.Storage.SQLitePath
		if path == "" {
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return nil, fmt.Errorf("resolving sqlite path: %w", err)
			}
			path = cfger.SQLitePath(cfg)
		}
		if path == "" {
			log.Warn("no sqlite path available, falling back to in-memory storage")
			return inmemory.NewDriver(), nil
		}

		driver, err := sqlite.NewSQLiteDriver(path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		log.Debug("using sqlite storage", "path", path)
		return driver, nil

	case config.StoragePostgres:
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires storage.postgres_dsn")
		}

		driver, err := postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres storage: %w", err)
		}
		log.Debug("using postgres storage")
		return driver, nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q (available: %s)",
			cfg.Storage.Provider, strings.Join(config.StorageProviders(), ", "))
	}
}

// Publisher opens the event publisher selected by events.provider.
func Publisher(cfg *config.Config, log *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case config.EventsNone, "":
		return nop.NewPublisher(), nil

	case config.EventsKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.BrokerList(),
			Topic:   cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("opening kafka publisher: %w", err)
		}
		log.Debug("publishing exchange events to kafka",
			"brokers", cfg.Events.Brokers,
			"topic", cfg.Events.Topic,
		)
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown events provider %q (available: %s)",
			cfg.Events.Provider, strings.Join(config.EventProviders(), ", "))
	}
}

// Recorder bundles history storage with the worker pool that writes to it.
type Recorder struct {
	Driver    storage.Driver
	Publisher eventstream.Publisher
	Pool      *worker.Pool
}

// OpenRecorder opens storage and the publisher and starts the worker pool.
// Anything opened before a failure is closed again.
func OpenRecorder(ctx context.Context, cfg *config.Config, configDir string, log *slog.Logger) (*Recorder, error) {
	driver, err := Storage(ctx, cfg, configDir, log)
	if err != nil {
		return nil, err
	}

	pub, err := Publisher(cfg, log)
	if err != nil {
		_ = driver.Close()
		return nil, err
	}

	pool, err := worker.NewPool(&worker.Config{
		Driver:    driver,
		Publisher: pub,
		Logger:    log,
	})
	if err != nil {
		_ = pub.Close()
		_ = driver.Close()
		return nil, fmt.Errorf("starting worker pool: %w", err)
	}

	return &Recorder{Driver: driver, Publisher: pub, Pool: pool}, nil
}

// Record queues ex for storage.
func (r *Recorder) Record(ex *storage.Exchange) bool {
	return r.Pool.Enqueue(worker.Job{Exchange: ex})
}

// Close drains queued exchanges, then closes the publisher and storage.
func (r *Recorder) Close() error {
	r.Pool.Close()

	return errors.Join(r.Publisher.Close(), r.Driver.Close())
}
