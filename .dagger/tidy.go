package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/ollamaui/internal/dagger"
)

// CheckGoModTidy fails when go.mod or go.sum differ from what "go mod tidy"
// would write. The diff is returned in the error.
//
// +check
func (o *Ollamaui) CheckGoModTidy(ctx context.Context) (string, error) {
	_, err := o.goContainer().
		WithExec([]string{"go", "mod", "tidy", "-diff"}).
		Stdout(ctx)

	var execErr *dagger.ExecError
	switch {
	case errors.As(err, &execErr):
		return "", fmt.Errorf("ollamaui module is not tidy, run 'go mod tidy':\n\n%s", execErr.Stdout)
	case err != nil:
		return "", fmt.Errorf("running go mod tidy: %w", err)
	}

	return "go.mod and go.sum are tidy", nil
}
