// Package service wires protocol transport to domain handlers.
//
// It is the transport adapter layer: the package knows how to run MCP over
// stdio and delegates the meaning of each tool to the domain package.
package service
