// Package ollamauicmder
package ollamauicmder

import (
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/ollamaui/cmd/ollamaui/chat"
	configcmder "github.com/papercomputeco/ollamaui/cmd/ollamaui/config"
	historycmder "github.com/papercomputeco/ollamaui/cmd/ollamaui/history"
	modelscmder "github.com/papercomputeco/ollamaui/cmd/ollamaui/models"
	servecmder "github.com/papercomputeco/ollamaui/cmd/ollamaui/serve"
	versioncmder "github.com/papercomputeco/ollamaui/cmd/version"
	"github.com/papercomputeco/ollamaui/pkg/cliui"
)

const ollamauiLongDesc string = `ollamaui is a small front end for a local Ollama server.

Chat from the terminal or from the browser:
  ollamaui chat        Send a prompt or start an interactive session
  ollamaui serve       Run the web UI, history API and MCP endpoint
  ollamaui models      List the models on the server
  ollamaui history     Browse recorded exchanges
  ollamaui config      Manage persistent configuration

Configuration is read from .ollamaui/config.toml (in the current directory,
else the home directory), OLLAMAUI_* environment variables, and flags.`

const ollamauiShortDesc string = "ollamaui - chat with local Ollama models"

func NewOllamauiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ollamaui",
		Short:         ollamauiShortDesc,
		Long:          ollamauiLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cliui.ConfigureColor(os.Stdout)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .ollamaui/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
