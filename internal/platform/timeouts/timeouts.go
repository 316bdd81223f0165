// Package timeouts defines shared timeout constants used across commands.
package timeouts

import "time"

// TelemetryShutdown limits how long a command waits for spans to flush
// on exit.
const TelemetryShutdown = 5 * time.Second

// ToolCompute caps a single win probability computation requested through
// the MCP server.
const ToolCompute = 30 * time.Second
