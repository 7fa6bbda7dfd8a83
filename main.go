package main

import (
	"fmt"
	"os"
	"time"

	"github.com/propscope/propscope/cmd"
	"github.com/propscope/propscope/internal/buildinfo"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/telemetry"
)

// Build metadata, stamped by the linker at release time:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.buildDate=2026-08-23T10:00:00Z"
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(run())
}

func run() int {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		return 1
	}

	build := buildinfo.NewContext(version, buildDate)
	settings.Version = build.Version()
	settings.BuildDate = build.BuildDate()

	// A missing system ID degrades telemetry attribution but never blocks startup.
	if err := telemetry.EnsureSystemID(settings); err != nil {
		fmt.Fprintf(os.Stderr, "warning: system ID unavailable: %v\n", err)
	}

	if err := telemetry.InitSentry(settings); err != nil {
		fmt.Fprintf(os.Stderr, "warning: telemetry disabled: %v\n", err)
	}
	defer telemetry.Flush(2 * time.Second)

	if err := cmd.RootCommand(settings).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}
