package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/louisbranch/dicedensity/internal/services/mcp/domain")

// traced wraps a handler in a span named after the tool.
func traced[In, Out any](name string, handler mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		ctx, span := tracer.Start(ctx, "mcp.tool."+name, trace.WithAttributes(attribute.String("mcp.tool", name)))
		defer span.End()

		result, output, err := handler(ctx, req, input)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return result, output, err
	}
}
