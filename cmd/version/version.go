// Package versioncmder
package versioncmder

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/cmd/ollamaui/setup"
	"github.com/papercomputeco/ollamaui/pkg/config"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
	"github.com/papercomputeco/ollamaui/pkg/utils"
)

// serverTimeout bounds the --server version lookup.
const serverTimeout = 5 * time.Second

type VersionCommander struct {
	server  bool
	baseURL string
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version of this CLI, and with --server the version of the Ollama server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.server, "server", false, "Also query the Ollama server version")
	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)

	return cmd
}

func (c *VersionCommander) run(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Version: %s\nSha: %s\nBuilt at: %s\n", utils.Version, utils.Sha, utils.Buildtime)

	if !c.server {
		return nil
	}

	cfg, _, err := setup.Load(cmd, []string{config.FlagBaseURL})
	if err != nil {
		return err
	}

	return serverVersion(cmd.Context(), out, cfg)
}

func serverVersion(ctx context.Context, out io.Writer, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(ctx, serverTimeout)
	defer cancel()

	client := ollama.NewClient(ollama.Config{BaseURL: cfg.Client.BaseURL})
	version, err := client.Version(ctx)
	if err != nil {
		return fmt.Errorf("querying %s: %s", client.BaseURL(), ollama.Describe(err))
	}

	fmt.Fprintf(out, "Ollama: %s (%s)\n", version, client.BaseURL())
	return nil
}
