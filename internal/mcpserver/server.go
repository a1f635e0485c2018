// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz catalog and lending tools for LLM integration
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/catalog"
	"github.com/starford/laguz/internal/ledger"
	"github.com/starford/laguz/internal/lending"
	"github.com/starford/laguz/internal/members"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp     *server.MCPServer
	books   *catalog.Catalog
	members *members.Directory
	records *ledger.Ledger
	engine  *lending.Service
}

// New creates a new MCP server with all Laguz tools registered.
func New(books *catalog.Catalog, dir *members.Directory, records *ledger.Ledger, engine *lending.Service) *Server {
	s := &Server{books: books, members: dir, records: records, engine: engine}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_books",
		mcp.WithDescription("Search the book catalog by title/author substring, genre, and availability."),
		mcp.WithString("query", mcp.Description("Substring to match against title or author")),
		mcp.WithString("genre", mcp.Description("Exact genre to filter by (case-insensitive)")),
		mcp.WithString("available", mcp.Description("Set to 'true' or 'false' to filter by availability")),
	), s.searchBooks)

	s.mcp.AddTool(mcp.NewTool("get_book",
		mcp.WithDescription("Get the full catalog entry for one book."),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Numeric book id")),
	), s.getBook)

	s.mcp.AddTool(mcp.NewTool("list_members",
		mcp.WithDescription("List all registered library members."),
	), s.listMembers)

	s.mcp.AddTool(mcp.NewTool("member_history",
		mcp.WithDescription("Get a member's borrowing history, open and closed records."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Numeric member id")),
	), s.memberHistory)

	s.mcp.AddTool(mcp.NewTool("borrow_history",
		mcp.WithDescription("Get the full borrowing history across all members."),
	), s.borrowHistory)

	s.mcp.AddTool(mcp.NewTool("borrow_book",
		mcp.WithDescription("Borrow a book for a member. Fails if the member is inactive or the book is unavailable."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Numeric member id")),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Numeric book id")),
	), s.borrowBook)

	s.mcp.AddTool(mcp.NewTool("return_book",
		mcp.WithDescription("Return a borrowed book. Fails if there is no open borrow record for the pair."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Numeric member id")),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Numeric book id")),
	), s.returnBook)

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

func requireID(req mcp.CallToolRequest, key string) (int, error) {
	raw, err := req.RequireString(key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return id, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchBooks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := catalog.Filter{}
	if q, err := req.RequireString("query"); err == nil {
		f.Search = q
	}
	if g, err := req.RequireString("genre"); err == nil {
		f.Genre = g
	}
	if a, err := req.RequireString("available"); err == nil && a != "" {
		avail := a == "true"
		f.Available = &avail
	}
	return jsonResult(s.books.List(f)), nil
}

func (s *Server) getBook(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	book, err := s.books.FindByID(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(book), nil
}

func (s *Server) listMembers(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.members.List(members.Filter{})), nil
}

func (s *Server) memberHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req, "user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	member, err := s.members.FindByID(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"user":             member,
		"borrowingHistory": s.records.ByUser(id),
	}), nil
}

func (s *Server) borrowHistory(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.records.ListAll()), nil
}

func (s *Server) borrowBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := requireID(req, "user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bookID, err := requireID(req, "book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.engine.Borrow(ctx, userID, bookID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}

func (s *Server) returnBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := requireID(req, "user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bookID, err := requireID(req, "book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.engine.Return(ctx, userID, bookID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result), nil
}
