// Package domain translates MCP tool calls into density and combat
// computations.
//
// Each tool has an input type, a result type, a *mcp.Tool definition and a
// handler constructor. Handlers are pure over their inputs except for the
// optional bestiary lookups in the combat tools.
package domain
