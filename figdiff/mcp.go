package figdiff

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/figdiff/figma"
	"github.com/hazyhaar/figdiff/kit"
)

// RegisterMCP registers the figdiff tools on an MCP server.
func (r *Runner) RegisterMCP(srv *mcp.Server) {
	r.registerRunTool(srv)
	r.registerRunsTool(srv)
	r.registerTranslateTool(srv)
}

// toolMiddleware logs every tool call and converts panics into tool errors.
func (r *Runner) toolMiddleware(name string) kit.Middleware {
	return kit.Chain(kit.Logging(r.logger, name), kit.Recovery(r.logger))
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- run ---

type runReq struct{}

func (r *Runner) registerRunTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "figdiff_run",
		Description: "Compare the configured Figma file against local renders and write the diff report. Returns pass/fail per node.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		res, err := r.Run(ctx)
		if err != nil {
			return nil, err
		}
		return res.Summary(), nil
	}

	kit.RegisterMCPTool(srv, tool, r.toolMiddleware(tool.Name)(endpoint), kit.DecodeArgs[runReq]())
}

// --- runs ---

type runsReq struct {
	Limit int    `json:"limit"`
	RunID string `json:"run_id"`
}

func (r *Runner) registerRunsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "figdiff_runs",
		Description: "List recorded runs, newest first, or fetch one run with its per-node results.",
		InputSchema: inputSchema(map[string]any{
			"limit":  map[string]any{"type": "integer", "description": "Maximum runs to list (default 50)"},
			"run_id": map[string]any{"type": "string", "description": "Return this run with its results"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*runsReq)
		if r.store == nil {
			return nil, ErrNoStore
		}
		if q.RunID != "" {
			return r.store.GetRun(ctx, q.RunID)
		}
		runs, err := r.store.ListRuns(ctx, q.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"runs": runs}, nil
	}

	kit.RegisterMCPTool(srv, tool, r.toolMiddleware(tool.Name)(endpoint), kit.DecodeArgs[runsReq]())
}

// --- translate ---

type translateReq struct {
	Node     json.RawMessage `json:"node"`
	Fragment bool            `json:"fragment"`
}

func (r *Runner) registerTranslateTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "figdiff_translate",
		Description: "Translate a Figma node (REST API JSON) to the HTML figdiff screenshots.",
		InputSchema: inputSchema(map[string]any{
			"node":     map[string]any{"type": "object", "description": "Figma node as returned by GET /v1/files/:key"},
			"fragment": map[string]any{"type": "boolean", "description": "Return the body fragment instead of a full page"},
		}, []string{"node"}),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		q := req.(*translateReq)
		if len(q.Node) == 0 {
			return nil, errors.New("node is required")
		}
		var n figma.Node
		if err := json.Unmarshal(q.Node, &n); err != nil {
			return nil, err
		}
		var html string
		var err error
		if q.Fragment {
			html, err = r.translator.Fragment(&n)
		} else {
			html, err = r.translator.Document(&n)
		}
		if err != nil {
			return nil, err
		}
		return map[string]string{"html": html}, nil
	}

	kit.RegisterMCPTool(srv, tool, r.toolMiddleware(tool.Name)(endpoint), kit.DecodeArgs[translateReq]())
}
