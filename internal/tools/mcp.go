package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// RegisterAll registers every tool of d on s.
func RegisterAll(s *server.MCPServer, d *Dispatcher) {
	for _, desc := range d.ListTools() {
		s.AddTool(MCPTool(desc), createHandler(d, desc.Name))
	}
	log.Info().Int("tools", len(d.ListTools())).Msg("Registered tools")
}

// MCPTool converts a descriptor into its mcp-go definition.
func MCPTool(desc Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(desc.Description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(desc.OpenWorld),
	}

	for _, p := range desc.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}

		switch p.Type {
		case TypeInteger:
			props = append(props, integerType())
			if n, ok := p.Default.(int); ok {
				props = append(props, mcp.DefaultNumber(float64(n)))
			}
			if p.Bounds != nil {
				props = append(props, mcp.Min(float64(p.Bounds.Min)), mcp.Max(float64(p.Bounds.Max)))
			}
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		default:
			if len(p.Enum) > 0 {
				props = append(props, mcp.Enum(p.Enum...))
			}
			if p.Pattern != "" {
				props = append(props, mcp.Pattern(p.Pattern))
			}
			if s, ok := p.Default.(string); ok {
				props = append(props, mcp.DefaultString(s))
			}
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}

	return mcp.NewTool(desc.Name, opts...)
}

// integerType narrows a number property to JSON Schema integer.
func integerType() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = string(TypeInteger)
	}
}

// createHandler routes an MCP call through the dispatcher. Tool errors are
// reported as error results, never as protocol errors.
func createHandler(d *Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := d.Dispatch(ctx, Call{Name: name, Arguments: req.GetArguments()})
		if err != nil {
			var terr *ToolError
			if errors.As(err, &terr) {
				return mcp.NewToolResultError(terr.Error()), nil
			}
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toMCPResult(res), nil
	}
}

func toMCPResult(res *Result) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(res.Content))
	for _, c := range res.Content {
		content = append(content, mcp.NewTextContent(c.Text))
	}
	return &mcp.CallToolResult{Content: content}
}
