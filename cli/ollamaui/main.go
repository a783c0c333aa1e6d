package main

import (
	"fmt"
	"os"

	ollamauicmder "github.com/papercomputeco/ollamaui/cmd/ollamaui"
	"github.com/papercomputeco/ollamaui/pkg/cliui"
)

func main() {
	cmd := ollamauicmder.NewOllamauiCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
		os.Exit(1)
	}
}
