package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/dicedensity/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connect serves s over in-memory transports and returns a client session.
func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer clientCancel()
	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("serve did not stop after cancel")
		}
		_ = session.Close()
	})
	return session
}

func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()
	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

func decodeStructuredContent[T any](t *testing.T, value any) T {
	t.Helper()

	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var output T
	if err := json.Unmarshal(data, &output); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return output
}

func TestServerRegistersToolsWithoutBestiary(t *testing.T) {
	server, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connect(t, server)

	got := strings.Join(toolNames(t, session), ",")
	if got != "combat_matchup,density_evaluate,density_summed" {
		t.Fatalf("tools = %s", got)
	}
}

func TestServerRegistersBestiaryTools(t *testing.T) {
	server, err := New(context.Background(), Config{BestiaryPath: filepath.Join(t.TempDir(), "bestiary.db")})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connect(t, server)

	got := strings.Join(toolNames(t, session), ",")
	if got != "bestiary_list,combat_matchup,density_evaluate,density_summed" {
		t.Fatalf("tools = %s", got)
	}

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "bestiary_list", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call bestiary_list: %v", err)
	}
	if result.IsError {
		t.Fatalf("bestiary_list failed: %+v", result.Content)
	}
	output := decodeStructuredContent[domain.BestiaryListResult](t, result.StructuredContent)
	if len(output.Profiles) != 0 {
		t.Fatalf("expected an empty bestiary, got %+v", output.Profiles)
	}
}

func TestDensityEvaluateOverProtocol(t *testing.T) {
	server, err := New(context.Background(), Config{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	session := connect(t, server)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "density_evaluate",
		Arguments: map[string]any{"expr": "ad20"},
	})
	if err != nil {
		t.Fatalf("call density_evaluate: %v", err)
	}
	if result.IsError {
		t.Fatalf("density_evaluate failed: %+v", result.Content)
	}
	output := decodeStructuredContent[domain.DensityEvaluateResult](t, result.StructuredContent)
	if output.Density == nil || output.Density.Highest != 20 || len(output.Density.Outcomes) != 20 {
		t.Fatalf("unexpected output %+v", output)
	}

	bad, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "density_evaluate",
		Arguments: map[string]any{"expr": "d6 +"},
	})
	if err == nil && (bad == nil || !bad.IsError) {
		t.Fatal("expected a tool error for a malformed expression")
	}
}

func TestRunUnsupportedTransport(t *testing.T) {
	err := Run(context.Background(), Config{Transport: "websocket"})
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected 'not supported' in error, got: %v", err)
	}
}

func TestNewFailsOnBadBestiaryPath(t *testing.T) {
	_, err := New(context.Background(), Config{BestiaryPath: filepath.Join(t.TempDir(), "missing", "dir", "bestiary.db")})
	if err == nil {
		t.Fatal("expected error for an unreachable bestiary path")
	}
}

func TestServeWithTransportRequiresServer(t *testing.T) {
	var nilServer *Server
	if err := nilServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}
	if err := nilServer.Close(); err != nil {
		t.Fatalf("close nil server: %v", err)
	}
}

func TestAddMCPToolRejectsUnknownHandler(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
	err := addMCPTool(server, &mcp.Tool{Name: "noop"}, func() {})
	if err == nil || !strings.Contains(err.Error(), "noop") {
		t.Fatalf("expected unsupported handler error, got %v", err)
	}
	if err := registerTool(mcpServerRegistrationAdapter{server: server}, nil, nil); err == nil {
		t.Fatal("expected error for nil tool")
	}
}
