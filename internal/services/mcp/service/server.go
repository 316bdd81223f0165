package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	bestiarysqlite "github.com/louisbranch/dicedensity/internal/bestiary/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "dicedensity MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportStdio is the only supported transport.
const TransportStdio = "stdio"

// Config configures the MCP server.
type Config struct {
	Transport string
	// BestiaryPath optionally points at a SQLite bestiary. When empty, combat
	// tools accept inline profiles only.
	BestiaryPath string
	// ToolTimeout bounds each density or combat computation.
	ToolTimeout time.Duration
}

type toolDeps struct {
	store   bestiary.Store
	timeout time.Duration
}

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

const (
	mcpDensityToolsModuleName = "density-tools"
	mcpCombatToolsModuleName  = "combat-tools"
)

func newMCPRegistrationModules(deps toolDeps) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpDensityToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerDensityTools(registrar, deps)
			},
		},
		{
			name: mcpCombatToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerCombatTools(registrar, deps)
			},
		},
	}
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	closer    interface{ Close() error }
}

// New creates an MCP server, opening the bestiary when one is configured.
func New(ctx context.Context, cfg Config) (*Server, error) {
	deps := toolDeps{timeout: cfg.ToolTimeout}
	var closer interface{ Close() error }
	if path := strings.TrimSpace(cfg.BestiaryPath); path != "" {
		store, err := bestiarysqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open bestiary: %w", err)
		}
		deps.store = store
		closer = store
	}

	server, err := newServer(deps)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	server.closer = closer
	return server, nil
}

func newServer(deps toolDeps) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	for _, module := range newMCPRegistrationModules(deps) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	return &Server{mcpServer: mcpServer}, nil
}

// Run builds a server for cfg and serves it until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	transport := strings.ToLower(strings.TrimSpace(cfg.Transport))
	if transport == "" {
		transport = TransportStdio
	}
	if transport != TransportStdio {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the bestiary held by the server.
func (s *Server) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return err
	}
	s.closer = nil
	return nil
}

// serveWithTransport runs the server on transport and closes it on exit.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close bestiary: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close bestiary: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
