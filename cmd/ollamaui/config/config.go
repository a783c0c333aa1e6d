// Package configcmder provides the config command for managing persistent
// ollamaui configuration stored in the .ollamaui/ directory.
package configcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/pkg/config"
)

const configLongDesc string = `Manage persistent ollamaui configuration.

Configuration is stored as config.toml in the .ollamaui/ directory and provides
default values for command flags. CLI flags and OLLAMAUI_* environment
variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  client.base_url, client.model, client.timeout,
  chat.system, chat.stream, chat.structured, chat.schema_file,
  server.listen,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  events.provider, events.brokers, events.topic,
  log.json

Use subcommands to get, set, or list configuration values:
  ollamaui config set <key> <value>    Set a configuration value
  ollamaui config get <key>            Get a configuration value
  ollamaui config list                 List all configuration values

Examples:
  ollamaui config set client.model qwen2.5:7b
  ollamaui config set chat.stream false
  ollamaui config get client.base_url
  ollamaui config list`

const configShortDesc string = "Manage persistent ollamaui configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
