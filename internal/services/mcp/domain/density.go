package domain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/louisbranch/dicedensity/internal/core/density"
	"github.com/louisbranch/dicedensity/internal/core/dice"
	"github.com/louisbranch/dicedensity/internal/random"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxSamples bounds the number of draws a single call may request.
const maxSamples = 1000

// Outcome is one value of a density and its probability.
type Outcome struct {
	Value       int     `json:"value" jsonschema:"outcome value"`
	Probability float64 `json:"probability" jsonschema:"probability of the outcome between 0 and 1"`
}

// DensitySummary describes a density.
type DensitySummary struct {
	Expected float64   `json:"expected" jsonschema:"mean outcome"`
	Stdev    float64   `json:"stdev" jsonschema:"standard deviation"`
	Median   float64   `json:"median" jsonschema:"median outcome"`
	Lowest   int       `json:"lowest" jsonschema:"smallest outcome"`
	Highest  int       `json:"highest" jsonschema:"largest outcome"`
	Outcomes []Outcome `json:"outcomes" jsonschema:"every outcome with positive probability in ascending order"`
}

// DensityEvaluateInput represents the MCP tool input for evaluating a dice
// expression.
type DensityEvaluateInput struct {
	Expr    string `json:"expr" jsonschema:"dice expression such as m2d6+3 or ad20+5 >= 15"`
	Samples int    `json:"samples,omitempty" jsonschema:"optional number of random draws to return"`
	Seed    *int64 `json:"seed,omitempty" jsonschema:"optional seed for reproducible draws"`
}

// DensityEvaluateResult represents the MCP tool output for an evaluated
// expression. Comparisons fill Probability; other expressions fill Density.
type DensityEvaluateResult struct {
	Expr        string          `json:"expr" jsonschema:"evaluated expression"`
	Comparison  bool            `json:"comparison" jsonschema:"true when the expression ends in a comparison"`
	Probability float64         `json:"probability,omitempty" jsonschema:"probability that the comparison holds"`
	Density     *DensitySummary `json:"density,omitempty" jsonschema:"distribution of the expression"`
	Samples     []int           `json:"samples,omitempty" jsonschema:"random draws from the distribution"`
	Seed        int64           `json:"seed,omitempty" jsonschema:"seed used for the draws"`
}

// DensityEvaluateTool defines the MCP tool schema for evaluating expressions.
func DensityEvaluateTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "density_evaluate",
		Description: "Computes the exact probability distribution of a dice expression. " +
			"Supports dN, adN (advantage), ddN (disadvantage), mKdN (sum of K dice), integers, + - *, abs(...), parentheses " +
			"and one trailing comparison (< <= > >= == !=) which yields a probability.",
	}
}

// DensityEvaluateHandler executes an expression evaluation. A non-positive
// timeout uses DefaultComputeTimeout.
func DensityEvaluateHandler(timeout time.Duration) mcp.ToolHandlerFor[DensityEvaluateInput, DensityEvaluateResult] {
	if timeout <= 0 {
		timeout = DefaultComputeTimeout
	}
	return traced("density_evaluate", func(ctx context.Context, _ *mcp.CallToolRequest, input DensityEvaluateInput) (*mcp.CallToolResult, DensityEvaluateResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := runCtx.Err(); err != nil {
			return nil, DensityEvaluateResult{}, err
		}
		if input.Samples < 0 || input.Samples > maxSamples {
			return nil, DensityEvaluateResult{}, fmt.Errorf("samples must be between 0 and %d", maxSamples)
		}
		parsed, err := dice.Parse(input.Expr)
		if err != nil {
			return nil, DensityEvaluateResult{}, fmt.Errorf("evaluate %q: %w", input.Expr, err)
		}
		if err := runCtx.Err(); err != nil {
			return nil, DensityEvaluateResult{}, err
		}

		result := DensityEvaluateResult{Expr: input.Expr, Comparison: parsed.Comparison}
		if parsed.Comparison {
			if input.Samples > 0 {
				return nil, DensityEvaluateResult{}, fmt.Errorf("%w: cannot sample %q", dice.ErrNotDensity, input.Expr)
			}
			result.Probability = parsed.Probability
			return &mcp.CallToolResult{}, result, nil
		}

		summary, err := summarize(parsed.Density)
		if err != nil {
			return nil, DensityEvaluateResult{}, err
		}
		result.Density = &summary
		if input.Samples > 0 {
			seed, err := random.SeedOrNew(input.Seed)
			if err != nil {
				return nil, DensityEvaluateResult{}, err
			}
			drawn, err := dice.SampleWithRng(random.New(seed), parsed.Density, input.Samples)
			if err != nil {
				return nil, DensityEvaluateResult{}, err
			}
			result.Samples = drawn.Values
			result.Seed = seed
		}
		return &mcp.CallToolResult{}, result, nil
	})
}

// DensitySummedInput represents the MCP tool input for a summed density.
type DensitySummedInput struct {
	Expr string `json:"expr" jsonschema:"dice expression with strictly positive outcomes, e.g. m2d6"`
	Goal int    `json:"goal" jsonschema:"running total that must not be exceeded"`
}

// DensitySummedResult represents the MCP tool output for a summed density.
type DensitySummedResult struct {
	Expr    string         `json:"expr" jsonschema:"evaluated expression"`
	Goal    int            `json:"goal" jsonschema:"goal used"`
	Density DensitySummary `json:"density" jsonschema:"distribution of how many draws fit before the total passes the goal"`
}

// DensitySummedTool defines the MCP tool schema for summed densities.
func DensitySummedTool() *mcp.Tool {
	return &mcp.Tool{
		Name: "density_summed",
		Description: "Computes how many independent draws of a dice expression can be added up " +
			"before the running total exceeds the goal, e.g. rations found while searching for a number of turns.",
	}
}

// DensitySummedHandler executes a summed density request. A non-positive
// timeout uses DefaultComputeTimeout.
func DensitySummedHandler(timeout time.Duration) mcp.ToolHandlerFor[DensitySummedInput, DensitySummedResult] {
	if timeout <= 0 {
		timeout = DefaultComputeTimeout
	}
	return traced("density_summed", func(ctx context.Context, _ *mcp.CallToolRequest, input DensitySummedInput) (*mcp.CallToolResult, DensitySummedResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := runCtx.Err(); err != nil {
			return nil, DensitySummedResult{}, err
		}
		d, err := dice.ParseDensity(input.Expr)
		if err != nil {
			return nil, DensitySummedResult{}, fmt.Errorf("evaluate %q: %w", input.Expr, err)
		}
		summed, err := d.SummedContext(runCtx, input.Goal)
		if err != nil {
			return nil, DensitySummedResult{}, fmt.Errorf("summed density: %w", err)
		}
		summary, err := summarize(summed)
		if err != nil {
			return nil, DensitySummedResult{}, err
		}
		return &mcp.CallToolResult{}, DensitySummedResult{Expr: input.Expr, Goal: input.Goal, Density: summary}, nil
	})
}

func summarize(d density.Density) (DensitySummary, error) {
	lowest, err := d.Lowest()
	if err != nil {
		return DensitySummary{}, err
	}
	highest, err := d.Highest()
	if err != nil {
		return DensitySummary{}, err
	}
	median, err := d.Median()
	if err != nil {
		return DensitySummary{}, err
	}
	summary := DensitySummary{
		Expected: d.Expected(),
		Stdev:    d.Stdev(),
		Median:   median,
		Lowest:   lowest,
		Highest:  highest,
	}
	probs := d.Values()
	for i, k := range d.Keys() {
		if probs[i] <= 0 || math.IsNaN(probs[i]) {
			continue
		}
		summary.Outcomes = append(summary.Outcomes, Outcome{Value: k, Probability: probs[i]})
	}
	return summary, nil
}
