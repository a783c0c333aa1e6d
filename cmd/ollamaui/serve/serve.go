// Package servecmder provides the serve command, which runs the ollamaui web
// server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/ollamaui/api"
	"github.com/papercomputeco/ollamaui/cmd/ollamaui/setup"
	"github.com/papercomputeco/ollamaui/pkg/compose"
	"github.com/papercomputeco/ollamaui/pkg/config"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
)

// versionCheckTimeout bounds the startup reachability check.
const versionCheckTimeout = 5 * time.Second

var flagKeys = []string{
	config.FlagListen,
	config.FlagBaseURL,
	config.FlagModel,
	config.FlagTimeout,
	config.FlagSystem,
	config.FlagStream,
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagEvents,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagJSONLogs,
	config.FlagLogFile,
}

type ServeCommander struct {
	listen      string
	baseURL     string
	model       string
	timeout     string
	system      string
	stream      bool
	storage     string
	sqlitePath  string
	postgresDSN string
	events      string
	brokers     string
	topic       string
	jsonLogs    bool
	logFile     string

	configDir string
	cfg       *config.Config
	viper     *viper.Viper
	logger    *slog.Logger
	closeLog  func() error
}

const serveLongDesc string = `Run the ollamaui web server.

The server hosts the chat form at /, streams replies to it as server-sent
events, and exposes:
  /api/chat, /api/models, /api/defaults    Form endpoints
  /api/history, /api/history/:id           Recorded exchanges
  /ollama/*                                Recording passthrough to Ollama
  /mcp                                     MCP tools (chat, history)

Every exchange is recorded in the history store and, with --events kafka,
published to a Kafka topic.

The default model and system prompt are reloaded when config.toml changes.
With --log-file, JSON logs are also appended to that file.

Examples:
  ollamaui serve
  ollamaui serve --listen :3000 --base-url http://gpu-box:11434
  ollamaui serve --storage postgres --postgres-dsn postgres://localhost/ollamaui`

const serveShortDesc string = "Run the ollamaui web server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, v, err := setup.Load(cmd, flagKeys)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.viper = v

			debug, _ := cmd.Flags().GetBool("debug")
			cmder.logger, cmder.closeLog, err = setup.WithLogFile(setup.Logger(cmd, cfg), cfg, debug)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer func() {
				if err := cmder.closeLog(); err != nil {
					fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
				}
			}()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddStringFlag(cmd, config.Flags, config.FlagSystem, &cmder.system)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.storage)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.Flags, config.FlagEvents, &cmder.events)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaTopic, &cmder.topic)
	config.AddBoolFlag(cmd, config.Flags, config.FlagJSONLogs, &cmder.jsonLogs)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFile, &cmder.logFile)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context) error {
	client, err := setup.Client(c.cfg, c.logger)
	if err != nil {
		return err
	}

	timeout, err := setup.Timeout(c.cfg)
	if err != nil {
		return err
	}

	defaults, err := setup.Defaults(c.cfg)
	if err != nil {
		return err
	}

	c.checkServer(ctx, client)

	recorder, err := setup.OpenRecorder(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			c.logger.Warn("closing history storage", "error", err)
		}
	}()

	server, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.Server.Listen,
		Timeout:    timeout,
		Defaults:   defaults,
		Stream:     c.cfg.Chat.StreamEnabled(),
	}, client, recorder.Driver, recorder.Pool, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.watchConfig(server)

	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		c.logger.Info("context cancelled, shutting down")
	}

	return server.Shutdown()
}

// checkServer logs whether the model server answers. An unreachable server
// is not fatal; the form reports errors per request.
func (c *ServeCommander) checkServer(ctx context.Context, client *ollama.Client) {
	ctx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()

	version, err := client.Version(ctx)
	if err != nil {
		c.logger.Warn("model server not reachable",
			"base_url", client.BaseURL(),
			"error", ollama.Describe(err),
		)
		return
	}

	c.logger.Info("model server reachable",
		"base_url", client.BaseURL(),
		"version", version,
	)
}

// watchConfig reloads the default model and system prompt when config.toml
// changes. Nothing is watched when no config file was read.
func (c *ServeCommander) watchConfig(server defaultsSetter) {
	if c.viper.ConfigFileUsed() == "" {
		return
	}

	c.viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		applyConfigChange(c.viper, server, c.logger)
	})
	c.viper.WatchConfig()

	c.logger.Debug("watching config file", "path", c.viper.ConfigFileUsed())
}

type defaultsSetter interface {
	SetDefaults(d compose.Defaults)
}

// applyConfigChange pushes the defaults from the reloaded config to server.
// An invalid config keeps the previous defaults.
func applyConfigChange(v *viper.Viper, server defaultsSetter, log *slog.Logger) {
	cfg := config.FromViper(v)

	defaults, err := setup.Defaults(cfg)
	if err != nil {
		log.Warn("ignoring config change", "error", err)
		return
	}
	if defaults.Model == "" {
		log.Warn("ignoring config change", "error", errors.New("client.model is empty"))
		return
	}

	server.SetDefaults(defaults)
}
