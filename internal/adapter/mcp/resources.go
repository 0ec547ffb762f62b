package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

const templatesURI = "planforge://templates"

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			templatesURI,
			"Project Templates",
			mcplib.WithResourceDescription("Catalog of project templates used to steer plan generation"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTemplatesResource,
	)
}

func (s *Server) handleTemplatesResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	text := `{"error":"template catalog not configured"}`
	if s.deps.Templates != nil {
		data, err := json.Marshal(s.deps.Templates.All())
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
