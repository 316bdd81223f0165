package service

import (
	"fmt"

	"github.com/louisbranch/dicedensity/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.DensityEvaluateInput, domain.DensityEvaluateResult](),
	newMCPToolRegistrar[domain.DensitySummedInput, domain.DensitySummedResult](),
	newMCPToolRegistrar[domain.CombatMatchupInput, domain.CombatMatchupResult](),
	newMCPToolRegistrar[domain.BestiaryListInput, domain.BestiaryListResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}

func registerDensityTools(registrar mcpRegistrationTarget, deps toolDeps) error {
	if err := registerTool(registrar, domain.DensityEvaluateTool(), domain.DensityEvaluateHandler(deps.timeout)); err != nil {
		return err
	}
	return registerTool(registrar, domain.DensitySummedTool(), domain.DensitySummedHandler(deps.timeout))
}

func registerCombatTools(registrar mcpRegistrationTarget, deps toolDeps) error {
	if err := registerTool(registrar, domain.CombatMatchupTool(), domain.CombatMatchupHandler(deps.store, deps.timeout)); err != nil {
		return err
	}
	if deps.store == nil {
		return nil
	}
	return registerTool(registrar, domain.BestiaryListTool(), domain.BestiaryListHandler(deps.store))
}
