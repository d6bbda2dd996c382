package figdiff

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "figdiff-test", Version: "0.1.0"}

func mcpSession(t *testing.T, r *Runner) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	r.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	session, err := mcp.NewClient(testMCPImpl, nil).Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCall(t *testing.T, s *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text, res.IsError
}

func TestMCP_RunAndList(t *testing.T) {
	r, _ := historyRunner(t)
	s := mcpSession(t, r)

	text, isErr := mcpCall(t, s, "figdiff_run", map[string]any{})
	if isErr {
		t.Fatalf("figdiff_run: %s", text)
	}
	var sum Summary
	if err := json.Unmarshal([]byte(text), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Pass != 1 || len(sum.Nodes) != 1 || sum.Nodes[0].NodeID != "1:1" {
		t.Fatalf("summary: %+v", sum)
	}

	text, isErr = mcpCall(t, s, "figdiff_runs", map[string]any{"limit": 5})
	if isErr || !strings.Contains(text, sum.RunID) {
		t.Fatalf("figdiff_runs: %s", text)
	}
	text, isErr = mcpCall(t, s, "figdiff_runs", map[string]any{"run_id": sum.RunID})
	if isErr || !strings.Contains(text, `"node_id":"1:1"`) {
		t.Fatalf("figdiff_runs run_id: %s", text)
	}
}

func TestMCP_RunsWithoutHistory(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig(t), nil, red)
	s := mcpSession(t, r)
	text, isErr := mcpCall(t, s, "figdiff_runs", map[string]any{})
	if !isErr || !strings.Contains(text, "history disabled") {
		t.Fatalf("figdiff_runs: %s", text)
	}
}

func TestMCP_Translate(t *testing.T) {
	r, _, _ := newTestRunner(t, testConfig(t), nil, red)
	s := mcpSession(t, r)

	node := map[string]any{"id": "2:1", "type": "TEXT", "characters": "Buy now"}
	text, isErr := mcpCall(t, s, "figdiff_translate", map[string]any{"node": node, "fragment": true})
	if isErr {
		t.Fatalf("figdiff_translate: %s", text)
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatal(err)
	}
	if out["html"] != "<span>Buy now</span>" {
		t.Fatalf("html: %q", out["html"])
	}

	_, isErr = mcpCall(t, s, "figdiff_translate", map[string]any{})
	if !isErr {
		t.Fatal("missing node should be a tool error")
	}
}
