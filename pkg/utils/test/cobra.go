package testutils

import (
	"bytes"

	"github.com/spf13/cobra"
)

// RootCmd wraps subcommands in a bare root carrying the persistent flags the
// real root defines, so subcommands can be executed on their own.
func RootCmd(subs ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:           "ollamaui",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	root.PersistentFlags().String("config-dir", "", "Override path to .ollamaui/ config directory")
	root.AddCommand(subs...)
	return root
}

// Execute runs cmd with args and returns what it wrote to stdout and stderr.
func Execute(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
