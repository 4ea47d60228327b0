// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes PlugConversaPro tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/crmservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowdoc"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/flowservice"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/inboxservice"
)

const (
	mcpActor          = "mcp"
	flowFormatURI     = "plugconversa://flow-format"
	defaultToolsLimit = 50
)

// Server wraps the MCP server with PlugConversaPro tools.
type Server struct {
	mcp   *server.MCPServer
	crm   *crmservice.Service
	flows *flowservice.Service
	inbox *inboxservice.Service
}

// New creates a new MCP server with all tools registered.
func New(crm *crmservice.Service, flows *flowservice.Service, inbox *inboxservice.Service) *Server {
	s := &Server{crm: crm, flows: flows, inbox: inbox}

	s.mcp = server.NewMCPServer(
		"PlugConversaPro",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	clientID := mcp.WithNumber("client_id", mcp.Required(), mcp.Description("Tenant id"))

	s.mcp.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List the tenant's contacts, optionally filtered by name or phone."),
		clientID,
		mcp.WithString("query", mcp.Description("Substring of name or phone")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 50)")),
	), s.listContacts)

	s.mcp.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the tenant's flows, optionally only those of one folder or only those outside any folder."),
		clientID,
		mcp.WithNumber("folder_id", mcp.Description("Folder id")),
		mcp.WithBoolean("root_only", mcp.Description("Only flows outside any folder; ignored when folder_id is set")),
	), s.listFlows)

	s.mcp.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Return a flow as a flow document whose steps reference each other by key. "+
			"See the "+flowFormatURI+" resource for the format."),
		clientID,
		mcp.WithNumber("flow_id", mcp.Required(), mcp.Description("Flow id")),
		mcp.WithString("format", mcp.Enum(flowdoc.FormatYAML, flowdoc.FormatJSON), mcp.Description("Document format (default yaml)")),
	), s.getFlow)

	s.mcp.AddTool(mcp.NewTool("copy_flow",
		mcp.WithDescription("Duplicate a flow with all its steps. Step references are remapped to the copies."),
		clientID,
		mcp.WithNumber("flow_id", mcp.Required(), mcp.Description("Flow id")),
		mcp.WithString("name", mcp.Description("Name of the copy (default: original name + \" (copy)\")")),
		mcp.WithNumber("folder_id", mcp.Description("Target folder (default: the source folder)")),
	), s.copyFlow)

	s.mcp.AddTool(mcp.NewTool("import_flow",
		mcp.WithDescription("Create a flow from a YAML or JSON flow document."),
		clientID,
		mcp.WithString("document", mcp.Required(), mcp.Description("Flow document following the "+flowFormatURI+" format")),
		mcp.WithNumber("folder_id", mcp.Description("Target folder")),
	), s.importFlow)

	s.mcp.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List inbox conversations, pinned first, then by latest activity."),
		clientID,
		mcp.WithString("status", mcp.Enum("open", "pending", "closed"), mcp.Description("Filter by status")),
		mcp.WithBoolean("unread", mcp.Description("Only unread conversations")),
		mcp.WithString("query", mcp.Description("Substring of lead name, phone or last message")),
	), s.listConversations)

	s.mcp.AddTool(mcp.NewTool("add_conversation_note",
		mcp.WithDescription("Append an internal note to a conversation's timeline."),
		clientID,
		mcp.WithNumber("conversation_id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Note text")),
	), s.addConversationNote)

	s.mcp.AddResource(
		mcp.NewResource(flowFormatURI, "Flow Document Format",
			mcp.WithResourceDescription("Format of the documents returned by get_flow and accepted by import_flow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFlowFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool error result. Domain errors
// keep their code so the model can react to it; others are logged.
func toolError(err error) *mcp.CallToolResult {
	if e, ok := apperr.As(err); ok {
		return mcp.NewToolResultError(e.Error())
	}
	slog.Error("mcp tool failed", slog.String("error", err.Error()))
	return mcp.NewToolResultError("internal error")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func requireID(req mcp.CallToolRequest, name string) (int64, error) {
	n, err := req.RequireInt(name)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return int64(n), nil
}

// optionalID returns nil when name is absent.
func optionalID(req mcp.CallToolRequest, name string) *int64 {
	n := req.GetInt(name, 0)
	if n <= 0 {
		return nil
	}
	id := int64(n)
	return &id
}

func (s *Server) listContacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, total, err := s.crm.ListContacts(ctx, clientID,
		req.GetString("query", ""), req.GetInt("limit", defaultToolsLimit), 0)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"items": items, "total": total})
}

func (s *Server) listFlows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flows, err := s.flows.ListFlows(ctx, clientID, flowservice.FlowListParams{
		FolderID: optionalID(req, "folder_id"),
		RootOnly: req.GetBool("root_only", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(flows)
}

func (s *Server) getFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flowID, err := requireID(req, "flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	exp, err := s.flows.ExportFlow(ctx, clientID, flowID, req.GetString("format", flowdoc.FormatYAML))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(exp.Data)), nil
}

func (s *Server) copyFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flowID, err := requireID(req, "flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.flows.CopyFlow(ctx, clientID, flowID, flowservice.CopyInput{
		Name:     req.GetString("name", ""),
		FolderID: optionalID(req, "folder_id"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(f)
}

func (s *Server) importFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.flows.ImportFlow(ctx, clientID, []byte(doc), flowservice.ImportInput{
		FolderID: optionalID(req, "folder_id"),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(f)
}

func (s *Server) listConversations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := inboxservice.ListParams{
		Status: req.GetString("status", ""),
		Query:  req.GetString("query", ""),
		Limit:  defaultToolsLimit,
	}
	if _, ok := req.GetArguments()["unread"]; ok {
		unread := req.GetBool("unread", false)
		p.Unread = &unread
	}
	items, total, err := s.inbox.ListConversations(ctx, clientID, p)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"items": items, "total": total})
}

func (s *Server) addConversationNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := requireID(req, "client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	convID, err := requireID(req, "conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ev, err := s.inbox.AddEvent(ctx, clientID, convID, inboxservice.EventInput{Body: body}, mcpActor)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(ev)
}

func (s *Server) readFlowFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      flowFormatURI,
			MIMEType: "text/markdown",
			Text:     FlowFormatContract,
		},
	}, nil
}
