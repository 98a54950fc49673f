package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "impactmap://usage-guidelines",
		Name:        "Usage Guidelines",
		Description: "System prompt and usage guidelines for the impactmap MCP server",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      "impactmap://usage-guidelines",
					MIMEType: "text/markdown",
					Text:     s.systemPrompt,
				},
			},
		}, nil
	})

	// Build a map of tool name -> schema JSON for dynamic dispatch.
	schemaMap := buildSchemaMap()

	// Register a single resource template that matches impactmap://schemas/{tool_name}.
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "impactmap://schemas/{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		toolName := strings.TrimPrefix(uri, "impactmap://schemas/")
		schemaJSON, ok := schemaMap[toolName]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", toolName)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/schema+json",
					Text:     schemaJSON,
				},
			},
		}, nil
	})
}

// buildSchemaMap constructs a map from tool name to its JSON schema string.
// Schemas are derived from the args structs using jsonschema inference.
func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	addSchema[IndexArgs](m, "index")
	addSchema[IndexStatusArgs](m, "index_status")
	addSchema[SelectTestsArgs](m, "select_tests")
	addSchema[FindImpactArgs](m, "find_impact")
	addSchema[GetSymbolsInFileArgs](m, "get_symbols_in_file")
	addSchema[GetSymbolArgs](m, "get_symbol")
	return m
}

func addSchema[T any](m map[string]string, name string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	m[name] = string(schemaJSON)
}
