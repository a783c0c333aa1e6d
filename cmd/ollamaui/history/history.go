// Package historycmder provides the history command for browsing recorded
// exchanges.
package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/cmd/ollamaui/setup"
	"github.com/papercomputeco/ollamaui/pkg/config"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// storageKeys are the registry flags that select the history store.
var storageKeys = []string{
	config.FlagStorage,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagJSONLogs,
}

type historyCommander struct {
	storage     string
	sqlitePath  string
	postgresDSN string
	jsonLogs    bool

	limit int
	json  bool

	configDir string
	cfg       *config.Config
	logger    *slog.Logger
}

const historyLongDesc string = `Browse recorded exchanges.

Every chat sent from the CLI, the web UI, the MCP tools or through the
recording passthrough is kept in the history store. Without a subcommand
the most recent exchanges are listed, newest first, as "history list" does.

Examples:
  ollamaui history
  ollamaui history list --limit 50
  ollamaui history show 7f9c2b1e-...`

const historyShortDesc string = "Browse recorded exchanges"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, _, err := setup.Load(cmd, storageKeys)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.logger = setup.Logger(cmd, cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.withDriver(cmd.Context(), func(driver storage.Driver) error {
				return cmder.list(cmd.Context(), cmd.OutOrStdout(), driver)
			})
		},
	}

	// Storage flags are persistent so "history show" shares them.
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagStorage, &cmder.storage)
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddPersistentStringFlag(cmd, config.Flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddPersistentBoolFlag(cmd, config.Flags, config.FlagJSONLogs, &cmder.jsonLogs)

	cmd.PersistentFlags().BoolVar(&cmder.json, "json", false, "Print exchanges as JSON")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", storage.DefaultListLimit, "Number of exchanges to list")

	cmd.AddCommand(newListCmd(cmder))
	cmd.AddCommand(newShowCmd(cmder))

	return cmd
}

func (c *historyCommander) withDriver(ctx context.Context, fn func(storage.Driver) error) error {
	driver, err := setup.Storage(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			c.logger.Warn("closing history storage", "error", err)
		}
	}()

	return fn(driver)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
