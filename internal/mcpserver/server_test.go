package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/crmservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/testutil"
)

type testEnv struct {
	srv   *Server
	crm   *crmservice.Service
	flows *flowservice.Service
	inbox *inboxservice.Service
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	st := testutil.TestStore(t)
	env := testEnv{
		crm:   crmservice.NewService(st),
		flows: flowservice.NewService(st, nil),
		inbox: inboxservice.NewService(st),
	}
	env.srv = New(env.crm, env.flows, env.inbox)
	return env
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_contacts":
		result, err = srv.listContacts(ctx, req)
	case "list_flows":
		result, err = srv.listFlows(ctx, req)
	case "get_flow":
		result, err = srv.getFlow(ctx, req)
	case "copy_flow":
		result, err = srv.copyFlow(ctx, req)
	case "import_flow":
		result, err = srv.importFlow(ctx, req)
	case "list_conversations":
		result, err = srv.listConversations(ctx, req)
	case "add_conversation_note":
		result, err = srv.addConversationNote(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolsRequireClientID(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"list_contacts", "list_flows", "list_conversations"} {
		r := callTool(t, env.srv, name, map[string]any{})
		if !r.IsError {
			t.Errorf("%s without client_id: expected error", name)
		}
		r = callTool(t, env.srv, name, map[string]any{"client_id": float64(0)})
		if !r.IsError {
			t.Errorf("%s with client_id 0: expected error", name)
		}
	}
}

func TestListContacts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.crm.CreateContact(ctx, 1, crmservice.ContactInput{Name: "Ana"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.crm.CreateContact(ctx, 2, crmservice.ContactInput{Name: "Bruno"}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, env.srv, "list_contacts", map[string]any{"client_id": float64(1)})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var page struct {
		Items []models.Contact `json:"items"`
		Total int              `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].Name != "Ana" {
		t.Errorf("page = %+v", page)
	}
}

func TestGetAndCopyFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	flow, err := env.flows.CreateFlow(ctx, 1, flowservice.FlowInput{Name: "Welcome"})
	if err != nil {
		t.Fatal(err)
	}
	end, err := env.flows.CreateStep(ctx, 1, flow.ID, flowservice.StepInput{Title: "end", Message: "bye", Position: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.flows.CreateStep(ctx, 1, flow.ID, flowservice.StepInput{Title: "start", NextStepID: &end.ID}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, env.srv, "get_flow", map[string]any{"client_id": float64(1), "flow_id": float64(flow.ID)})
	text := resultText(r)
	if r.IsError || !strings.Contains(text, "name: Welcome") || !strings.Contains(text, "next: step-") {
		t.Errorf("get_flow = %q", text)
	}

	r = callTool(t, env.srv, "get_flow", map[string]any{"client_id": float64(2), "flow_id": float64(flow.ID)})
	if !r.IsError || !strings.Contains(resultText(r), "flow_not_found") {
		t.Errorf("cross-tenant get_flow = %q", resultText(r))
	}

	r = callTool(t, env.srv, "copy_flow", map[string]any{"client_id": float64(1), "flow_id": float64(flow.ID)})
	if r.IsError {
		t.Fatalf("copy_flow: %s", resultText(r))
	}
	var cp models.Flow
	if err := json.Unmarshal([]byte(resultText(r)), &cp); err != nil {
		t.Fatal(err)
	}
	if cp.Name != "Welcome (copy)" || len(cp.Steps) != 2 {
		t.Errorf("copy = %+v", cp)
	}

	r = callTool(t, env.srv, "list_flows", map[string]any{"client_id": float64(1)})
	var flows []models.Flow
	if err := json.Unmarshal([]byte(resultText(r)), &flows); err != nil {
		t.Fatal(err)
	}
	if len(flows) != 2 {
		t.Errorf("flows = %d, want 2", len(flows))
	}
}

func TestImportFlow(t *testing.T) {
	env := newTestEnv(t)
	doc := "version: 1\nname: Imported\nsteps:\n  - key: a\n    next: b\n  - key: b\n"

	r := callTool(t, env.srv, "import_flow", map[string]any{"client_id": float64(3), "document": doc})
	if r.IsError {
		t.Fatalf("import_flow: %s", resultText(r))
	}
	var f models.Flow
	if err := json.Unmarshal([]byte(resultText(r)), &f); err != nil {
		t.Fatal(err)
	}
	if f.ClientID != 3 || len(f.Steps) != 2 {
		t.Errorf("flow = %+v", f)
	}

	r = callTool(t, env.srv, "import_flow", map[string]any{"client_id": float64(3), "document": "name: x\nsteps:\n  - key: a\n    next: missing\n"})
	if !r.IsError || !strings.Contains(resultText(r), "invalid_flow_document") {
		t.Errorf("invalid import = %q", resultText(r))
	}
}

func TestConversationNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c, err := env.inbox.CreateConversation(ctx, 1, inboxservice.ConversationInput{LeadName: "Bia"}, "tester")
	if err != nil {
		t.Fatal(err)
	}

	r := callTool(t, env.srv, "add_conversation_note", map[string]any{
		"client_id":       float64(1),
		"conversation_id": float64(c.ID),
		"body":            "follow up tomorrow",
	})
	if r.IsError {
		t.Fatalf("add_conversation_note: %s", resultText(r))
	}
	var ev models.ConversationEvent
	if err := json.Unmarshal([]byte(resultText(r)), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != models.EventNote || ev.Actor != mcpActor {
		t.Errorf("event = %+v", ev)
	}

	r = callTool(t, env.srv, "list_conversations", map[string]any{"client_id": float64(1), "unread": false})
	if r.IsError {
		t.Fatalf("list_conversations: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"total": 1`) {
		t.Errorf("list = %s", resultText(r))
	}
}
