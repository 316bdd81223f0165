package domain

import (
	"context"

	"github.com/louisbranch/dicedensity/internal/bestiary"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BestiaryListInput represents the MCP tool input for listing profiles.
type BestiaryListInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter such as hp > 10 AND rule = \"natural\""`
}

// BestiaryListResult represents the MCP tool output for listing profiles.
type BestiaryListResult struct {
	Profiles []bestiary.Profile `json:"profiles" jsonschema:"stored combatant profiles ordered by name"`
}

// BestiaryListTool defines the MCP tool schema for listing profiles.
func BestiaryListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "bestiary_list",
		Description: "Lists the combatant profiles stored in the bestiary. Names can be used in combat_matchup. " +
			"An optional AIP-160 filter compares name, hp, attack, bonus_to_hit, damage, bonus_to_damage, " +
			"evade, armor, resistance, resource, max_fatigue and rule with = != < <= > >= joined by AND, OR and NOT.",
	}
}

// BestiaryListHandler lists stored profiles.
func BestiaryListHandler(store bestiary.Store) mcp.ToolHandlerFor[BestiaryListInput, BestiaryListResult] {
	return traced("bestiary_list", func(ctx context.Context, _ *mcp.CallToolRequest, input BestiaryListInput) (*mcp.CallToolResult, BestiaryListResult, error) {
		if store == nil {
			return nil, BestiaryListResult{}, ErrNoBestiary
		}
		profiles, err := store.ListProfiles(ctx, input.Filter)
		if err != nil {
			return nil, BestiaryListResult{}, err
		}
		if profiles == nil {
			profiles = []bestiary.Profile{}
		}
		return &mcp.CallToolResult{}, BestiaryListResult{Profiles: profiles}, nil
	})
}
