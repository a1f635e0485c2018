package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/lending"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	books, dir, records := testutil.TestCollections(t)
	if _, err := books.Add(models.Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi"}); err != nil {
		t.Fatal(err)
	}
	if _, err := dir.Add(models.Member{Name: "Alice", Email: "alice@example.com", MembershipType: "standard"}); err != nil {
		t.Fatal(err)
	}

	engine := lending.New(books, dir, records, lending.WithClock(func() models.Date {
		return models.NewDate(2024, time.January, 15)
	}))
	return New(books, dir, records, engine)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we call
	// the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_books":
		result, err = srv.searchBooks(ctx, req)
	case "get_book":
		result, err = srv.getBook(ctx, req)
	case "list_members":
		result, err = srv.listMembers(ctx, req)
	case "member_history":
		result, err = srv.memberHistory(ctx, req)
	case "borrow_history":
		result, err = srv.borrowHistory(ctx, req)
	case "borrow_book":
		result, err = srv.borrowBook(ctx, req)
	case "return_book":
		result, err = srv.returnBook(ctx, req)
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

func TestSearchBooks(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "search_books", map[string]interface{}{"query": "herbert"})
	text := resultText(r)
	if !strings.Contains(text, "Dune") {
		t.Errorf("search result = %q, want Dune entry", text)
	}

	r = callTool(t, srv, "search_books", map[string]interface{}{"query": "austen"})
	if text := resultText(r); !strings.HasPrefix(text, "[]") {
		t.Errorf("no-match search = %q, want empty list", text)
	}
}

func TestGetBook(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_book", map[string]interface{}{"book_id": "1"})
	if r.IsError {
		t.Fatalf("get_book error: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "Frank Herbert") {
		t.Errorf("get_book result = %q", text)
	}

	r = callTool(t, srv, "get_book", map[string]interface{}{"book_id": "42"})
	if !r.IsError {
		t.Error("expected error for missing book")
	}

	r = callTool(t, srv, "get_book", map[string]interface{}{"book_id": "zero"})
	if !r.IsError {
		t.Error("expected error for non-numeric id")
	}
}

func TestListMembers(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_members", map[string]interface{}{})
	if text := resultText(r); !strings.Contains(text, "Alice") {
		t.Errorf("list_members = %q", text)
	}
}

func TestBorrowAndReturnBook(t *testing.T) {
	srv := testServer(t)
	ids := map[string]interface{}{"user_id": "1", "book_id": "1"}

	r := callTool(t, srv, "borrow_book", ids)
	if r.IsError {
		t.Fatalf("borrow_book error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"dueDate": "2024-02-14"`) {
		t.Errorf("borrow result missing due date: %q", text)
	}

	// The copy is out, a second borrow must fail.
	r = callTool(t, srv, "borrow_book", ids)
	if !r.IsError {
		t.Error("expected error borrowing an unavailable book")
	}

	r = callTool(t, srv, "return_book", ids)
	if r.IsError {
		t.Fatalf("return_book error: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, `"status": "returned"`) {
		t.Errorf("return result = %q", text)
	}

	r = callTool(t, srv, "return_book", ids)
	if !r.IsError {
		t.Error("expected error returning with no open record")
	}
}

func TestBorrowBookUnknownMember(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "borrow_book", map[string]interface{}{"user_id": "9", "book_id": "1"})
	if !r.IsError {
		t.Error("expected error for unknown member")
	}
}

func TestMemberHistory(t *testing.T) {
	srv := testServer(t)
	callTool(t, srv, "borrow_book", map[string]interface{}{"user_id": "1", "book_id": "1"})

	r := callTool(t, srv, "member_history", map[string]interface{}{"user_id": "1"})
	if r.IsError {
		t.Fatalf("member_history error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "borrowingHistory") || !strings.Contains(text, `"bookId": 1`) {
		t.Errorf("member_history = %q", text)
	}

	r = callTool(t, srv, "member_history", map[string]interface{}{"user_id": "5"})
	if !r.IsError {
		t.Error("expected error for unknown member")
	}
}

func TestToolRegistration(t *testing.T) {
	srv := testServer(t)
	if srv.MCPServer() == nil {
		t.Fatal("underlying MCP server is nil")
	}
}
