// Package modelscmder provides the models command, which checks that the
// Ollama server is reachable and lists the models installed on it.
package modelscmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/cmd/ollamaui/setup"
	"github.com/papercomputeco/ollamaui/pkg/cliui"
	"github.com/papercomputeco/ollamaui/pkg/config"
	"github.com/papercomputeco/ollamaui/pkg/llm"
	"github.com/papercomputeco/ollamaui/pkg/ollama"
)

type modelsCommander struct {
	baseURL string
	timeout string
	json    bool

	cfg    *config.Config
	logger *slog.Logger
}

const modelsLongDesc string = `List the models available on the Ollama server.

The server version is fetched first as a reachability check, then every
locally installed model is printed with its size, parameter count and
quantization. Use --json for machine readable output.

Examples:
  ollamaui models
  ollamaui models --base-url http://gpu-box:11434
  ollamaui models --json`

const modelsShortDesc string = "List models on the Ollama server"

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup.Load(cmd, []string{config.FlagBaseURL, config.FlagTimeout})
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			cmder.logger = setup.Logger(cmd, cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print models as JSON")

	return cmd
}

func (c *modelsCommander) run(ctx context.Context, out, errOut io.Writer) error {
	client, err := setup.Client(c.cfg, c.logger)
	if err != nil {
		return err
	}

	var (
		version string
		models  []llm.ModelInfo
	)

	fetch := func() error {
		version, err = client.Version(ctx)
		if err != nil {
			return fmt.Errorf("%s is not reachable: %s", client.BaseURL(), ollama.Describe(err))
		}

		models, err = client.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("listing models: %s", ollama.Describe(err))
		}
		return nil
	}

	if c.json {
		if err := fetch(); err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	fmt.Fprintln(errOut)
	if err := cliui.Step(errOut, "Connecting to "+client.BaseURL(), fetch); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n\n", cliui.KeyValue("Ollama version", version))
	writeTable(out, models)
	fmt.Fprintln(out)

	return nil
}

func writeTable(out io.Writer, models []llm.ModelInfo) {
	if len(models) == 0 {
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("No models installed. Pull one with: ollama pull llama3.2"))
		return
	}

	nameWidth := len("NAME")
	for _, m := range models {
		nameWidth = max(nameWidth, len(m.Name))
	}

	fmt.Fprintf(out, "  %s\n", cliui.KeyStyle.Render(
		fmt.Sprintf("%-*s  %9s  %-8s  %-8s  %s", nameWidth, "NAME", "SIZE", "PARAMS", "QUANT", "MODIFIED"),
	))
	for _, m := range models {
		fmt.Fprintf(out, "  %s  %9s  %-8s  %-8s  %s\n",
			cliui.NameStyle.Render(fmt.Sprintf("%-*s", nameWidth, m.Name)),
			FormatSize(m.Size),
			m.Details.ParameterSize,
			m.Details.QuantizationLevel,
			cliui.DimStyle.Render(formatModified(m.ModifiedAt)),
		)
	}
}

// FormatSize renders a byte count with a binary unit, e.g. "1.9 GiB".
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatModified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}
