// Package mcp exposes the menu editor as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mchmarny/menued/pkg/editor"
	"github.com/mchmarny/menued/pkg/menu"
)

// Endpoint is the path the streamable HTTP transport is mounted on.
const Endpoint = "/mcp"

// VisibleRequest is the input of the visible_menu tool.
type VisibleRequest struct {
	Expanded string `json:"expanded"` // comma separated ids of expanded containers
}

// AddRequest is the input of the add_node tool.
type AddRequest struct {
	Name        string `json:"name"`
	Link        string `json:"link"`
	HasChildren bool   `json:"hasChildren"`
}

// EditRequest is the input of the edit_node tool. Name and Link replace the
// node's current values.
type EditRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// DeleteRequest is the input of the delete_node tool.
type DeleteRequest struct {
	ID string `json:"id"`
}

// MoveRequest is the input of the move_node tool. Index is a row in the
// visible list computed from Expanded.
type MoveRequest struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Expanded string `json:"expanded"` // comma separated ids of expanded containers
	Outside  bool   `json:"outside"`  // dropped outside the tree
}

// ListRequest is the input of the list_menu tool, which takes no arguments.
type ListRequest struct{}

// NewServer creates an MCP server with the menu tools bound to ed.
func NewServer(ed *editor.Editor, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"menued",
		version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("list_menu",
		mcp.WithDescription("Return the whole menu forest as nested JSON"),
	), mcp.NewTypedToolHandler(listHandler(ed)))

	s.AddTool(mcp.NewTool("visible_menu",
		mcp.WithDescription("Return the rows shown for a set of expanded containers, in display order"),
		mcp.WithString("expanded",
			mcp.Description("Comma separated ids of expanded containers, e.g. '0/0,0/1'"),
		),
	), mcp.NewTypedToolHandler(visibleHandler(ed)))

	s.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Append a new root-level entry"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name, 6 to 50 characters"),
		),
		mcp.WithString("link",
			mcp.Required(),
			mcp.Description("Link target, 10 to 50 characters"),
		),
		mcp.WithBoolean("hasChildren",
			mcp.Description("Create an empty container instead of a leaf"),
		),
	), mcp.NewTypedToolHandler(addHandler(ed)))

	s.AddTool(mcp.NewTool("edit_node",
		mcp.WithDescription("Change the name and link of an entry"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the entry to edit"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name, 6 to 50 characters"),
		),
		mcp.WithString("link",
			mcp.Required(),
			mcp.Description("Link target, 10 to 50 characters"),
		),
	), mcp.NewTypedToolHandler(editHandler(ed)))

	s.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete an entry and everything under it"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the entry to delete"),
		),
	), mcp.NewTypedToolHandler(deleteHandler(ed)))

	s.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Drop an entry onto a visible row; it takes that row's place among its siblings"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the dragged entry"),
		),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("Row index the entry is dropped on, counted in the visible rows"),
		),
		mcp.WithString("expanded",
			mcp.Description("Comma separated ids of expanded containers at drop time"),
		),
		mcp.WithBoolean("outside",
			mcp.Description("The entry was dropped outside the tree, nothing moves"),
		),
	), mcp.NewTypedToolHandler(moveHandler(ed)))

	return s
}

// NewHTTPHandler serves s over the streamable HTTP transport at Endpoint.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithEndpointPath(Endpoint))
}

// ServeStdio serves s over stdin and stdout until the input closes.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func splitIDs(s string) []string {
	out := []string{}
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func listHandler(ed *editor.Editor) func(context.Context, mcp.CallToolRequest, ListRequest) (*mcp.CallToolResult, error) {
	return func(_ context.Context, _ mcp.CallToolRequest, _ ListRequest) (*mcp.CallToolResult, error) {
		return jsonResult(ed.Store().Current())
	}
}

func visibleHandler(ed *editor.Editor) func(context.Context, mcp.CallToolRequest, VisibleRequest) (*mcp.CallToolResult, error) {
	return func(_ context.Context, _ mcp.CallToolRequest, args VisibleRequest) (*mcp.CallToolResult, error) {
		expanded := menu.NewExpansion(splitIDs(args.Expanded)...)
		return jsonResult(ed.Store().Current().Visible(expanded))
	}
}

func addHandler(ed *editor.Editor) func(context.Context, mcp.CallToolRequest, AddRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args AddRequest) (*mcp.CallToolResult, error) {
		form := menu.FormValues{Name: args.Name, Link: args.Link, HasChildren: args.HasChildren}
		if err := form.Validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		n, err := ed.Add(ctx, form)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to add node: %v", err)), nil
		}
		return jsonResult(n)
	}
}

func editHandler(ed *editor.Editor) func(context.Context, mcp.CallToolRequest, EditRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args EditRequest) (*mcp.CallToolResult, error) {
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		form := menu.FormValues{Name: args.Name, Link: args.Link}
		if err := form.Validate(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		n, err := ed.Edit(ctx, args.ID, form)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to edit node: %v", err)), nil
		}
		return jsonResult(n)
	}
}

func deleteHandler(ed *editor.Editor) func(context.Context, mcp.CallToolRequest, DeleteRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args DeleteRequest) (*mcp.CallToolResult, error) {
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		if err := ed.Delete(ctx, args.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to delete node: %v", err)), nil
		}
		return jsonResult(map[string]string{"deleted": args.ID})
	}
}

func moveHandler(ed *editor.Editor) func(context.Context, mcp.CallToolRequest, MoveRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args MoveRequest) (*mcp.CallToolResult, error) {
		if args.ID == "" {
			return mcp.NewToolResultError("id is required"), nil
		}
		ev := editor.DropEvent{
			NodeID:                 args.ID,
			CurrentIndex:           args.Index,
			IsPointerOverContainer: !args.Outside,
			Expanded:               splitIDs(args.Expanded),
		}

		res, err := ed.Move(ctx, ev, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to move node: %v", err)), nil
		}
		return jsonResult(res)
	}
}
