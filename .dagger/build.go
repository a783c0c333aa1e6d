package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/ollamaui/internal/dagger"
)

// Build and return directory of go binaries
func (o *Ollamaui) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	// define build matrix. go-sqlite3 needs cgo, so only linux targets are
	// built here, each with its own cross compiler.
	gooses := []string{"linux"}
	goarches := []string{"amd64", "arm64"}
	compilers := map[string]string{
		"amd64": "x86_64-linux-gnu-gcc",
		"arm64": "aarch64-linux-gnu-gcc",
	}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	golang := o.goContainer().
		WithExec([]string{"apt-get", "install", "-y", "gcc-x86-64-linux-gnu", "gcc-aarch64-linux-gnu"})

	for _, goos := range gooses {
		for _, goarch := range goarches {
			// create directory for each OS and architecture
			path := fmt.Sprintf("%s/%s/", goos, goarch)

			// build artifact
			build := golang.
				WithEnvVariable("GOOS", goos).
				WithEnvVariable("GOARCH", goarch).
				WithEnvVariable("CC", compilers[goarch]).
				WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/ollamaui"})

			// add build to outputs
			outputs = outputs.WithDirectory(path, build.Directory(path))
		}
	}

	// return build directory
	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (o *Ollamaui) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/ollamaui/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/ollamaui/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/ollamaui/pkg/utils.Buildtime=%s'", buildtime),
	}

	return o.Build(ctx, strings.Join(ldflags, " "))
}
