// Package main computes hit chances and win probability between two
// combatants.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	combatcmd "github.com/louisbranch/dicedensity/internal/cmd/combat"
	"github.com/louisbranch/dicedensity/internal/platform/cmd"
	"github.com/louisbranch/dicedensity/internal/platform/config"
)

func main() {
	cfg, err := combatcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cmd.RunWithTelemetry(ctx, cmd.ServiceCombat, func(ctx context.Context) error {
		return combatcmd.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
