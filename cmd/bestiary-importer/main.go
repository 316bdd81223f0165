package main

import (
	"context"
	"flag"
	"os"

	"github.com/louisbranch/dicedensity/internal/platform/cmd"
	"github.com/louisbranch/dicedensity/internal/platform/config"
	bestiaryimporter "github.com/louisbranch/dicedensity/internal/tools/importer/bestiary"
)

func main() {
	cfg, err := bestiaryimporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	err = cmd.RunWithTelemetry(context.Background(), cmd.ServiceBestiaryImporter, func(ctx context.Context) error {
		return bestiaryimporter.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
