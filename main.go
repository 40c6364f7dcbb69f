package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/launchbynttdata/launch-version-info/internal/cli"
	buildinfo "github.com/launchbynttdata/launch-version-info/internal/version"
)

// These variables will be set at build time by goreleaser
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	buildinfo.Set(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "vinfo: %v\n", err)
		return 1
	}
	return 0
}
