package historycmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/pkg/cliui"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

const showLongDesc string = `Show one recorded exchange in full.

Prints the request messages, the reply, the generation statistics and the
final response record for the exchange with the given ID.

Examples:
  ollamaui history show 7f9c2b1e-4a0d-4c8e-9b51-0d3f6f3c1a2b
  ollamaui history show 7f9c2b1e-4a0d-4c8e-9b51-0d3f6f3c1a2b --json`

const showShortDesc string = "Show one recorded exchange"

func newShowCmd(parent *historyCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return parent.withDriver(cmd.Context(), func(driver storage.Driver) error {
				return parent.show(cmd.Context(), cmd.OutOrStdout(), driver, args[0])
			})
		},
	}

	return cmd
}

func (c *historyCommander) show(ctx context.Context, out io.Writer, driver storage.Driver, id string) error {
	ex, err := driver.Get(ctx, id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("no exchange with ID %q", id)
		}
		return fmt.Errorf("loading exchange: %w", err)
	}

	if c.json {
		return writeJSON(out, ex)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cliui.KeyValue("ID", ex.ID))
	fmt.Fprintln(out, cliui.KeyValue("Model", ex.Model))
	fmt.Fprintln(out, cliui.KeyValue("Created", ex.CreatedAt.Local().Format(time.DateTime)))
	fmt.Fprintln(out, cliui.KeyValue("Duration", cliui.FormatDuration(time.Duration(ex.DurationMs)*time.Millisecond)))
	fmt.Fprintln(out, cliui.KeyValue("Streamed", fmt.Sprintf("%t", ex.Stream)))
	if len(ex.Format) > 0 {
		fmt.Fprintln(out, cliui.KeyValue("Schema", string(ex.Format)))
	}

	fmt.Fprintln(out)
	for _, msg := range ex.Messages {
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render(msg.Role+">"), msg.Content)
	}

	fmt.Fprintln(out)
	if ex.Content != "" {
		content := ex.Content
		if pretty, ok := cliui.PrettyJSON(content); ok && len(ex.Format) > 0 {
			content = pretty
		}
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("assistant>"), content)
	}
	if ex.Failed() {
		fmt.Fprintf(out, "  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(ex.Error))
	}

	if lines := cliui.StatsLines(ex.Stats); len(lines) > 0 {
		fmt.Fprintln(out)
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	}

	if len(ex.Raw) > 0 {
		raw, _ := cliui.PrettyJSON(string(ex.Raw))
		fmt.Fprintf(out, "\n  %s\n%s\n", cliui.KeyStyle.Render("Raw response:"), raw)
	}

	fmt.Fprintln(out)
	return nil
}
