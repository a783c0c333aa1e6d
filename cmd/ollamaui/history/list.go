package historycmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ollamaui/pkg/cliui"
	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// idWidth is how much of an exchange ID the list shows.
const idWidth = 8

const listShortDesc string = "List recent exchanges, newest first"

func newListCmd(parent *historyCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return parent.withDriver(cmd.Context(), func(driver storage.Driver) error {
				return parent.list(cmd.Context(), cmd.OutOrStdout(), driver)
			})
		},
	}

	cmd.Flags().IntVarP(&parent.limit, "limit", "n", storage.DefaultListLimit, "Number of exchanges to list")

	return cmd
}

func (c *historyCommander) list(ctx context.Context, out io.Writer, driver storage.Driver) error {
	limit := c.limit
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	exchanges, err := driver.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing exchanges: %w", err)
	}

	if c.json {
		return writeJSON(out, exchanges)
	}

	total, err := driver.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting exchanges: %w", err)
	}

	fmt.Fprintln(out)
	if len(exchanges) == 0 {
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("No exchanges recorded yet."))
		return nil
	}

	width := 80
	if f, ok := out.(*os.File); ok {
		width = cliui.Width(f, width)
	}

	for _, ex := range exchanges {
		writeEntry(out, ex, width)
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d of %d exchanges", len(exchanges), total)))
	return nil
}

func writeEntry(out io.Writer, ex *storage.Exchange, width int) {
	id := ex.ID
	if len(id) > idWidth {
		id = id[:idWidth]
	}

	fmt.Fprintf(out, "  %s %s %s %s\n",
		cliui.Mark(exchangeErr(ex)),
		cliui.HashStyle.Render(id),
		cliui.DimStyle.Render(ex.CreatedAt.Local().Format(time.DateTime)),
		cliui.NameStyle.Render(ex.Model),
	)

	// Room left after the indent and the "> " marker.
	previewWidth := max(width-6, 20)
	fmt.Fprintf(out, "    %s %s\n", cliui.DimStyle.Render(">"), cliui.Preview(ex.Prompt(), previewWidth))

	reply := ex.Content
	if ex.Failed() {
		reply = cliui.ErrorStyle.Render(ex.Error)
	}
	if reply != "" {
		fmt.Fprintf(out, "    %s %s\n", cliui.DimStyle.Render("<"), cliui.Preview(reply, previewWidth))
	}
}

func exchangeErr(ex *storage.Exchange) error {
	if ex.Failed() {
		return fmt.Errorf("%s", ex.Error)
	}
	return nil
}
