// Package main evaluates a dice expression and prints its density or
// probability.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	dicedensitycmd "github.com/louisbranch/dicedensity/internal/cmd/dicedensity"
	"github.com/louisbranch/dicedensity/internal/platform/config"
)

func main() {
	cfg, err := dicedensitycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dicedensitycmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
