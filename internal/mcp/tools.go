package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/query"
)

const (
	defaultListLimit = 25
	maxListLimit     = 200
)

// registerTools registers the catalog tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	filterOpts := []mcp.ToolOption{
		mcp.WithString("difficulty",
			mcp.Description("Only entries with this difficulty"),
			mcp.Enum(model.Difficulties...),
		),
		mcp.WithString("status",
			mcp.Description("Only entries with this completion status"),
			mcp.Enum(model.Statuses...),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive search over names and tags"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries to return (default 25, max 200)"),
		),
	}

	srv.AddTool(
		mcp.NewTool("hackfolio_list_rooms",
			append([]mcp.ToolOption{
				mcp.WithDescription(
					"List TryHackMe rooms in the portfolio, most recently completed first. Returns title, slug, " +
						"difficulty, status, tags and completion date. Write-up bodies are omitted; " +
						"use hackfolio_get_room for the full record.",
				),
				mcp.WithToolAnnotation(readOnlyAnnotation()),
			}, filterOpts...)...,
		),
		s.handleListRooms,
	)

	srv.AddTool(
		mcp.NewTool("hackfolio_get_room",
			mcp.WithDescription("Get one TryHackMe room, including its write-up, by slug."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("slug",
				mcp.Required(),
				mcp.Description("Room slug, e.g. \"pickle-rick\""),
			),
		),
		s.handleGetRoom,
	)

	srv.AddTool(
		mcp.NewTool("hackfolio_list_machines",
			append([]mcp.ToolOption{
				mcp.WithDescription(
					"List Hack The Box machines in the portfolio, most recently completed first. Returns name, OS, " +
						"difficulty, status, tags and completion date. Write-up bodies are omitted; " +
						"use hackfolio_get_machine for the full record.",
				),
				mcp.WithToolAnnotation(readOnlyAnnotation()),
			}, filterOpts...)...,
		),
		s.handleListMachines,
	)

	srv.AddTool(
		mcp.NewTool("hackfolio_get_machine",
			mcp.WithDescription("Get one Hack The Box machine, including its write-up, by ID."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Machine ID"),
			),
		),
		s.handleGetMachine,
	)

	srv.AddTool(
		mcp.NewTool("hackfolio_get_stats",
			mcp.WithDescription(
				"Get platform profile stats. Defaults are returned for a platform whose stats "+
					"have never been saved.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("platform",
				mcp.Description("htb, thm, or omit for both"),
				mcp.Enum("htb", "thm"),
			),
		),
		s.handleGetStats,
	)
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

type roomSummary struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Difficulty    string   `json:"difficulty"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags"`
	DateCompleted *string  `json:"dateCompleted"`
	HasWriteup    bool     `json:"hasWriteup"`
}

type machineSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	OS            string   `json:"os"`
	Difficulty    string   `json:"difficulty"`
	Status        string   `json:"status"`
	Tags          []string `json:"tags"`
	DateCompleted *string  `json:"dateCompleted"`
	HasWriteup    bool     `json:"hasWriteup"`
}

func filterFrom(request mcp.CallToolRequest) (model.ContentFilter, error) {
	search, err := query.SanitizeSearch(optionalString(request, "query"))
	if err != nil {
		return model.ContentFilter{}, err
	}
	return model.ContentFilter{
		Difficulty: optionalString(request, "difficulty"),
		Status:     optionalString(request, "status"),
		Search:     search,
	}, nil
}

func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func (s *MCPServer) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := filterFrom(request)
	if err != nil {
		return toolError("Invalid query: %v", err)
	}
	rooms, err := s.store.ListRooms(ctx, filter)
	if err != nil {
		s.logger.Error("mcp: list rooms failed", "error", err)
		return toolError("Failed to list rooms")
	}
	limit := clamp(optionalInt(request, "limit", defaultListLimit), 1, maxListLimit)

	items := make([]roomSummary, 0, min(len(rooms), limit))
	for _, r := range rooms {
		if len(items) == limit {
			break
		}
		items = append(items, roomSummary{
			ID: r.ID, Title: r.Title, Slug: r.Slug, Difficulty: r.Difficulty, Status: r.Status,
			Tags: r.Tags, DateCompleted: r.DateCompleted, HasWriteup: hasText(r.Writeup),
		})
	}
	return successJSON(map[string]interface{}{
		"rooms": items,
		"total": len(rooms),
	})
}

func (s *MCPServer) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := requireString(request, "slug")
	if err != nil {
		return toolError("%v", err)
	}
	room, err := s.store.GetRoomBySlug(ctx, slug)
	if errors.Is(err, config.ErrNotFound) {
		return toolError("No room with slug %q. Use hackfolio_list_rooms to find one.", slug)
	}
	if err != nil {
		s.logger.Error("mcp: get room failed", "error", err)
		return toolError("Failed to get room")
	}
	return successJSON(room)
}

func (s *MCPServer) handleListMachines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := filterFrom(request)
	if err != nil {
		return toolError("Invalid query: %v", err)
	}
	machines, err := s.store.ListMachines(ctx, filter)
	if err != nil {
		s.logger.Error("mcp: list machines failed", "error", err)
		return toolError("Failed to list machines")
	}
	limit := clamp(optionalInt(request, "limit", defaultListLimit), 1, maxListLimit)

	items := make([]machineSummary, 0, min(len(machines), limit))
	for _, m := range machines {
		if len(items) == limit {
			break
		}
		items = append(items, machineSummary{
			ID: m.ID, Name: m.Name, OS: m.OS, Difficulty: m.Difficulty, Status: m.Status,
			Tags: m.Tags, DateCompleted: m.DateCompleted, HasWriteup: hasText(m.Writeup),
		})
	}
	return successJSON(map[string]interface{}{
		"machines": items,
		"total":    len(machines),
	})
}

func (s *MCPServer) handleGetMachine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(request, "id")
	if err != nil {
		return toolError("%v", err)
	}
	m, err := s.store.GetMachine(ctx, id)
	if errors.Is(err, config.ErrNotFound) {
		return toolError("No machine with id %q. Use hackfolio_list_machines to find one.", id)
	}
	if err != nil {
		s.logger.Error("mcp: get machine failed", "error", err)
		return toolError("Failed to get machine")
	}
	return successJSON(m)
}

func (s *MCPServer) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	platform := optionalString(request, "platform")
	out := map[string]interface{}{}

	if platform == "" || platform == "htb" {
		htb, err := s.htbStats(ctx)
		if err != nil {
			s.logger.Error("mcp: get htb stats failed", "error", err)
			return toolError("Failed to get HTB stats")
		}
		out["htb"] = htb
	}
	if platform == "" || platform == "thm" {
		thm, err := s.thmStats(ctx)
		if err != nil {
			s.logger.Error("mcp: get thm stats failed", "error", err)
			return toolError("Failed to get THM stats")
		}
		out["thm"] = thm
	}
	if len(out) == 0 {
		return toolError("Unknown platform %q: use htb or thm", platform)
	}
	return successJSON(out)
}

func (s *MCPServer) htbStats(ctx context.Context) (*model.HTBStats, error) {
	stats, err := s.store.GetHTBStats(ctx)
	if errors.Is(err, config.ErrNotFound) {
		def := model.DefaultHTBStats()
		return &def, nil
	}
	return stats, err
}

func (s *MCPServer) thmStats(ctx context.Context) (*model.THMStats, error) {
	stats, err := s.store.GetTHMStats(ctx)
	if errors.Is(err, config.ErrNotFound) {
		def := model.DefaultTHMStats()
		return &def, nil
	}
	return stats, err
}
