package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hackfolio/hackfolio/internal/config"
)

const (
	statsURI        = "hackfolio://stats"
	writeupURIStart = "hackfolio://writeups/thm/"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	// -------------------------------------------------------------------
	// hackfolio://stats: both platform summaries
	// -------------------------------------------------------------------
	srv.AddResource(
		mcp.NewResource(
			statsURI,
			"Platform Stats",
			mcp.WithResourceDescription("Hack The Box and TryHackMe profile stats shown on the portfolio."),
			mcp.WithMIMEType("application/json"),
		),
		s.handleStatsResource,
	)

	// -------------------------------------------------------------------
	// hackfolio://writeups/thm/{slug}: one room with its write-up
	// -------------------------------------------------------------------
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			writeupURIStart+"{slug}",
			"TryHackMe Write-up",
			mcp.WithTemplateDescription("A TryHackMe room record, including the write-up body."),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleWriteupResource,
	)
}

func (s *MCPServer) handleStatsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	htb, err := s.htbStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load htb stats: %w", err)
	}
	thm, err := s.thmStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load thm stats: %w", err)
	}
	return jsonResource(statsURI, map[string]interface{}{"htb": htb, "thm": thm})
}

func (s *MCPServer) handleWriteupResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	slug := strings.TrimPrefix(uri, writeupURIStart)
	if slug == "" || slug == uri {
		return nil, fmt.Errorf("invalid write-up URI %q: expected %s{slug}", uri, writeupURIStart)
	}

	room, err := s.store.GetRoomBySlug(ctx, slug)
	if errors.Is(err, config.ErrNotFound) {
		return nil, fmt.Errorf("no room with slug %q", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %q: %w", slug, err)
	}
	return jsonResource(uri, room)
}
