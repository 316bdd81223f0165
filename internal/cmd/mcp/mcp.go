// Package mcp parses MCP command flags and starts the stdio tool server.
package mcp

import (
	"context"
	"flag"
	"time"

	platformcmd "github.com/louisbranch/dicedensity/internal/platform/cmd"
	mcpservice "github.com/louisbranch/dicedensity/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Transport    string        `env:"MCP_TRANSPORT"    envDefault:"stdio"`
	BestiaryPath string        `env:"BESTIARY_DB"`
	ToolTimeout  time.Duration `env:"MCP_TOOL_TIMEOUT" envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio")
	fs.StringVar(&cfg.BestiaryPath, "db-path", cfg.BestiaryPath, "bestiary database path, empty for inline profiles only")
	fs.DurationVar(&cfg.ToolTimeout, "tool-timeout", cfg.ToolTimeout, "time limit for each density or combat computation")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server with telemetry until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			Transport:    cfg.Transport,
			BestiaryPath: cfg.BestiaryPath,
			ToolTimeout:  cfg.ToolTimeout,
		})
	})
}
