package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PlanForge/internal/domain"
	"github.com/Strob0t/PlanForge/internal/domain/generation"
	"github.com/Strob0t/PlanForge/internal/domain/plan"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.generatePlanTool(),
		s.listTemplatesTool(),
		s.listPlansTool(),
		s.getPlanTool(),
	)
}

func (s *Server) generatePlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("generate_plan",
		mcplib.WithDescription("Generate a structured project plan from a project idea"),
		mcplib.WithString("idea",
			mcplib.Required(),
			mcplib.Description("The project idea, 10 to 1000 characters"),
		),
		mcplib.WithString("template_id",
			mcplib.Description("Optional template to steer the plan, see list_templates"),
		),
		mcplib.WithString("project_type", mcplib.Description("Kind of project")),
		mcplib.WithString("target_audience", mcplib.Description("Who the project is for")),
		mcplib.WithString("budget", mcplib.Description("Budget range")),
		mcplib.WithString("timeline", mcplib.Description("Delivery timeline")),
		mcplib.WithString("team_size", mcplib.Description("Team size")),
		mcplib.WithArray("constraints",
			mcplib.Description("Technical constraints"),
			mcplib.Items(map[string]any{"type": "string"}),
		),
		mcplib.WithArray("business_goals",
			mcplib.Description("Business goals the plan should serve"),
			mcplib.Items(map[string]any{"type": "string"}),
		),
		mcplib.WithArray("integration_requirements",
			mcplib.Description("Systems the project must integrate with"),
			mcplib.Items(map[string]any{"type": "string"}),
		),
		mcplib.WithString("additional_context", mcplib.Description("Anything else the planner should know")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGeneratePlan}
}

func (s *Server) listTemplatesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_templates",
		mcplib.WithDescription("List project templates, optionally filtered by category or search text"),
		mcplib.WithString("category", mcplib.Description("Only templates in this category")),
		mcplib.WithString("query", mcplib.Description("Case-insensitive search on name, description and tags")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListTemplates}
}

func (s *Server) listPlansTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_plans",
		mcplib.WithDescription("List saved plans, newest first"),
		mcplib.WithNumber("limit", mcplib.Description("Page size, default 10, max 100")),
		mcplib.WithNumber("offset", mcplib.Description("Number of plans to skip")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListPlans}
}

func (s *Server) getPlanTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_plan",
		mcplib.WithDescription("Get a saved plan by ID"),
		mcplib.WithString("plan_id",
			mcplib.Required(),
			mcplib.Description("The plan ID to look up"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetPlan}
}

func (s *Server) handleGeneratePlan(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Generator == nil {
		return mcplib.NewToolResultError("plan generator not configured"), nil
	}
	if limited := s.checkRate(ctx); limited != nil {
		return limited, nil
	}

	args := req.GetArguments()
	genReq := generation.Request{
		Idea:       textArg(args, "idea"),
		TemplateID: textArg(args, "template_id"),
	}
	c := generation.Context{
		ProjectType:             textArg(args, "project_type"),
		TargetAudience:          textArg(args, "target_audience"),
		Budget:                  textArg(args, "budget"),
		Timeline:                textArg(args, "timeline"),
		TeamSize:                textArg(args, "team_size"),
		Constraints:             listArg(args, "constraints"),
		BusinessGoals:           listArg(args, "business_goals"),
		IntegrationRequirements: listArg(args, "integration_requirements"),
		AdditionalContext:       textArg(args, "additional_context"),
	}
	if c.ProjectType.Present || c.TargetAudience.Present || c.Budget.Present || c.Timeline.Present ||
		c.TeamSize.Present || c.Constraints.Present || c.BusinessGoals.Present ||
		c.IntegrationRequirements.Present || c.AdditionalContext.Present {
		genReq.Context = &c
	}

	p, err := s.deps.Generator.GeneratePlan(ctx, genReq)
	if err != nil {
		if ge, ok := generation.AsError(err); ok {
			return mcplib.NewToolResultError(fmt.Sprintf("%s: %s", ge.Kind, ge.Message)), nil
		}
		return mcplib.NewToolResultErrorFromErr("failed to generate plan", err), nil
	}
	return toolResultJSON(p)
}

// checkRate applies the generation limit to the calling owner. It returns a
// too_many_requests result when the window is exhausted. A limiter failure
// lets the call through.
func (s *Server) checkRate(ctx context.Context) *mcplib.CallToolResult {
	if s.deps.Limiter == nil || s.deps.RateLimit <= 0 {
		return nil
	}
	owner := s.owner(ctx)
	res, err := s.deps.Limiter.Check(ctx, s.deps.RateLimit, "owner:"+owner)
	if err != nil {
		slog.WarnContext(ctx, "mcp: rate limiter unavailable, allowing call", "owner_id", owner, "error", err)
		return nil
	}
	if res.Success {
		return nil
	}
	ge := generation.TooManyRequests()
	return mcplib.NewToolResultError(fmt.Sprintf("%s: %s", ge.Kind, ge.Message))
}

func (s *Server) handleListTemplates(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Templates == nil {
		return mcplib.NewToolResultError("template catalog not configured"), nil
	}
	args := req.GetArguments()
	templates := s.deps.Templates.All()
	if q := stringArg(args, "query"); q != "" {
		templates = s.deps.Templates.Search(q)
	}
	if c := stringArg(args, "category"); c != "" {
		filtered := templates[:0:0]
		for i := range templates {
			if templates[i].Category == c {
				filtered = append(filtered, templates[i])
			}
		}
		templates = filtered
	}
	return toolResultJSON(templates)
}

func (s *Server) handleListPlans(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Plans == nil {
		return mcplib.NewToolResultError("plan store not configured"), nil
	}
	args := req.GetArguments()
	opts := plan.ListOptions{Limit: intArg(args, "limit"), Offset: intArg(args, "offset")}
	plans, err := s.deps.Plans.List(ctx, s.owner(ctx), opts)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list plans", err), nil
	}
	return toolResultJSON(plans)
}

func (s *Server) handleGetPlan(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Plans == nil {
		return mcplib.NewToolResultError("plan store not configured"), nil
	}
	planID := stringArg(req.GetArguments(), "plan_id")
	if planID == "" {
		return mcplib.NewToolResultError("plan_id is required"), nil
	}
	p, err := s.deps.Plans.Get(ctx, planID, s.owner(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return mcplib.NewToolResultError(fmt.Sprintf("plan %s not found", planID)), nil
		}
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get plan %s", planID), err), nil
	}
	return toolResultJSON(p)
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// textArg keeps the argument's presence and shape so the validator can
// report a missing or wrongly typed field.
func textArg(args map[string]any, key string) generation.Text {
	v, ok := args[key]
	if !ok || v == nil {
		return generation.Text{}
	}
	s, ok := v.(string)
	if !ok {
		return generation.Text{Present: true, Malformed: true}
	}
	return generation.NewText(s)
}

// listArg reads an array of strings, marking any other shape malformed.
func listArg(args map[string]any, key string) generation.List {
	switch v := args[key].(type) {
	case nil:
		return generation.List{}
	case []string:
		return generation.NewList(v...)
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return generation.List{Present: true, Malformed: true}
			}
			values = append(values, s)
		}
		return generation.NewList(values...)
	default:
		return generation.List{Present: true, Malformed: true}
	}
}

// intArg reads a JSON number argument; zero when absent or not a number.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
