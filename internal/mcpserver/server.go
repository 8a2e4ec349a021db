// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the journal to agent tooling via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nmarks/driftpad/internal/editor"
	"github.com/nmarks/driftpad/internal/models"
	"github.com/nmarks/driftpad/internal/store"
)

// Server wraps the MCP server with journal tools. All tools operate on a
// single configured user's entries.
type Server struct {
	mcp    *server.MCPServer
	db     store.Recorder
	userID string
}

// New creates a new MCP server with all journal tools registered.
func New(db store.Recorder, userID string) *Server {
	s := &Server{db: db, userID: userID}

	s.mcp = server.NewMCPServer(
		"Driftpad",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the user's journal entries, newest first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a journal entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new journal entry. Title and content may be empty; a blank title is synthesized from the content when the entry is saved."),
		mcp.WithString("title", mcp.Description("Optional entry title")),
		mcp.WithString("content", mcp.Description("Optional entry body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Update an entry's title and content. A blank title is synthesized from the first 50 characters of content."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
		mcp.WithString("title", mcp.Description("New title (optional)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New body content")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a journal entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	), s.deleteNote)

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

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.db.ListNotes(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("no entries"), nil
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", e.ID, e.UpdatedAt.Format("2006-01-02 15:04"), e.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.db.GetNote(ctx, id)
	if err != nil || entry.UserID != s.userID {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(entry, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := ""
	if v, err := req.RequireString("title"); err == nil {
		title = v
	}
	content := ""
	if v, err := req.RequireString("content"); err == nil {
		content = v
	}

	entry, err := s.db.InsertNote(ctx, s.userID, models.EntryTypeIdea, title, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", entry.ID)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.db.GetNote(ctx, id)
	if err != nil || entry.UserID != s.userID {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	title := ""
	if v, titleErr := req.RequireString("title"); titleErr == nil {
		title = v
	}
	title = editor.SynthesizeTitle(title, content)
	if err := s.db.UpdateNote(ctx, id, title, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", id)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.db.DeleteNote(ctx, s.userID, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}
