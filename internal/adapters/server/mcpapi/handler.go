// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/takt/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter with velocity, summary, and profile tools.
func NewHandler(cfg Config, velocity common.VelocityService, summary common.SummaryReader, profiles common.ProfileDirectory) (*Handler, error) {
	if velocity == nil {
		return nil, fmt.Errorf("velocity service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerVelocityTools(mcpSrv, velocity)
	if summary != nil {
		registerSummaryTool(mcpSrv, summary)
	}
	if profiles != nil {
		registerProfileTools(mcpSrv, profiles)
	}

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "takt"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerVelocityTools registers recording and read tools backed by the velocity service.
func registerVelocityTools(srv *mcpserver.MCPServer, velocity common.VelocityService) {
	srv.AddTool(
		mcp.NewTool(
			"takt.record_task_completion",
			mcp.WithDescription("Record one completed task for a workstream and return its updated activity."),
			mcp.WithString("spec_id", mcp.Required(), mcp.Description("Workstream identifier")),
			mcp.WithString("task_id", mcp.Description("Optional task identifier")),
			mcp.WithBoolean("required", mcp.Description("Whether the task was required rather than optional")),
			mcp.WithString("completed_at", mcp.Description("RFC 3339 completion time (defaults to the service clock)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			specID, err := req.RequireString("spec_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := velocity.RecordTaskCompletion(ctx, common.RecordTaskRequest{
				SpecID:      specID,
				TaskID:      req.GetString("task_id", ""),
				Required:    req.GetBool("required", false),
				CompletedAt: req.GetString("completed_at", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode record_task_completion result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.record_spec_completion",
			mcp.WithDescription("Record one workstream completion with its final task counts."),
			mcp.WithString("spec_id", mcp.Required(), mcp.Description("Workstream identifier")),
			mcp.WithNumber("total_tasks", mcp.Required(), mcp.Description("Total task count for the workstream")),
			mcp.WithNumber("completed_tasks", mcp.Required(), mcp.Description("Completed task count")),
			mcp.WithString("completed_at", mcp.Description("RFC 3339 completion time (defaults to the service clock)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			specID, err := req.RequireString("spec_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			totalTasks, err := req.RequireInt("total_tasks")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			completedTasks, err := req.RequireInt("completed_tasks")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := velocity.RecordSpecCompletion(ctx, common.RecordSpecCompletionRequest{
				SpecID:         specID,
				TotalTasks:     totalTasks,
				CompletedTasks: completedTasks,
				CompletedAt:    req.GetString("completed_at", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode record_spec_completion result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.update_spec_progress",
			mcp.WithDescription("Update workstream task counts, marking completion when the counts close out."),
			mcp.WithString("spec_id", mcp.Required(), mcp.Description("Workstream identifier")),
			mcp.WithNumber("total_tasks", mcp.Required(), mcp.Description("Total task count for the workstream")),
			mcp.WithNumber("completed_tasks", mcp.Required(), mcp.Description("Completed task count")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			specID, err := req.RequireString("spec_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			totalTasks, err := req.RequireInt("total_tasks")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			completedTasks, err := req.RequireInt("completed_tasks")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := velocity.UpdateSpecProgress(ctx, common.UpdateSpecProgressRequest{
				SpecID:         specID,
				TotalTasks:     totalTasks,
				CompletedTasks: completedTasks,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode update_spec_progress result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.get_velocity_metrics",
			mcp.WithDescription("Return current-week totals, the required/optional split, day-of-week velocity, and the weekly series."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := velocity.VelocityMetrics(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_velocity_metrics result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.get_tasks_per_week",
			mcp.WithDescription("Return completed-task counts per week, oldest week first."),
			mcp.WithNumber("weeks", mcp.Description("Window length in weeks (defaults to 12)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			counts, err := velocity.TasksPerWeek(ctx, req.GetInt("weeks", 0))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"counts": counts,
			})
			if err != nil {
				return nil, fmt.Errorf("encode get_tasks_per_week result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.get_specs_per_week",
			mcp.WithDescription("Return completed-workstream counts per week, oldest week first."),
			mcp.WithNumber("weeks", mcp.Description("Window length in weeks (defaults to 12)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			counts, err := velocity.SpecsPerWeek(ctx, req.GetInt("weeks", 0))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"counts": counts,
			})
			if err != nil {
				return nil, fmt.Errorf("encode get_specs_per_week result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.list_spec_activity",
			mcp.WithDescription("List per-workstream activity sorted by workstream identifier."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			views, err := velocity.ListSpecActivity(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"specs": views,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_spec_activity result: %w", err)
			}
			return result, nil
		},
	)
}

// registerSummaryTool registers the `takt.get_velocity_summary` tool.
func registerSummaryTool(srv *mcpserver.MCPServer, summary common.SummaryReader) {
	srv.AddTool(
		mcp.NewTool(
			"takt.get_velocity_summary",
			mcp.WithDescription("Return a hashed point-in-time velocity snapshot for one reporting window."),
			mcp.WithNumber("weeks", mcp.Description("Window length in weeks (defaults to 12)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := summary.VelocitySummary(ctx, common.SummaryRequest{
				Weeks: req.GetInt("weeks", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_velocity_summary result: %w", err)
			}
			return result, nil
		},
	)
}

// registerProfileTools registers profile directory tools.
func registerProfileTools(srv *mcpserver.MCPServer, profiles common.ProfileDirectory) {
	srv.AddTool(
		mcp.NewTool(
			"takt.create_profile",
			mcp.WithDescription("Create one reporting profile."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Profile identifier")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Profile display name")),
			mcp.WithString("template", mcp.Description("Optional report template")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := profiles.CreateProfile(ctx, common.ProfileRequest{
				ID:       id,
				Name:     name,
				Template: req.GetString("template", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode create_profile result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.update_profile",
			mcp.WithDescription("Update one existing reporting profile."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Profile identifier")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Profile display name")),
			mcp.WithString("template", mcp.Description("Optional report template")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			name, err := req.RequireString("name")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := profiles.UpdateProfile(ctx, common.ProfileRequest{
				ID:       id,
				Name:     name,
				Template: req.GetString("template", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode update_profile result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.get_profile",
			mcp.WithDescription("Return one reporting profile by identifier."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Profile identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := profiles.GetProfile(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_profile result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.list_profiles",
			mcp.WithDescription("List reporting profiles sorted by identifier."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			views, err := profiles.ListProfiles(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"profiles": views,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_profiles result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"takt.validate_profile",
			mcp.WithDescription("Validate reporting profile fields without persisting anything."),
			mcp.WithString("id", mcp.Description("Profile identifier")),
			mcp.WithString("name", mcp.Description("Profile display name")),
			mcp.WithString("template", mcp.Description("Report template")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			view, err := profiles.ValidateProfile(ctx, common.ProfileRequest{
				ID:       req.GetString("id", ""),
				Name:     req.GetString("name", ""),
				Template: req.GetString("template", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode validate_profile result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidVelocityRequest), errors.Is(err, common.ErrInvalidProfileRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrProfileConflict):
		return mcp.NewToolResultError("conflict: " + err.Error())
	case errors.Is(err, common.ErrVelocityUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
