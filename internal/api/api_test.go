package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/lending"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/testutil"
)

type envelope struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func fixedToday() models.Date {
	return models.NewDate(2024, time.January, 15)
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	books, dir, records := testutil.TestCollections(t)
	engine := lending.New(books, dir, records, lending.WithClock(fixedToday))
	h := api.NewHandler(books, dir, records, engine, nil, nil)
	return api.NewRouter(h, false, "", nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return w, env
}

func createBook(t *testing.T, router http.Handler, title, author, genre string) models.Book {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/books", map[string]any{
		"title": title, "author": author, "genre": genre, "publishedYear": 2001, "isbn": "978-0",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create book status = %d, body %s", w.Code, w.Body.String())
	}
	var book models.Book
	if err := json.Unmarshal(env.Data, &book); err != nil {
		t.Fatal(err)
	}
	return book
}

func createMember(t *testing.T, router http.Handler, name, email string) models.Member {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/users", map[string]any{
		"name": name, "email": email, "membershipType": "standard",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create member status = %d, body %s", w.Code, w.Body.String())
	}
	var m models.Member
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestBookCRUD(t *testing.T) {
	router := testRouter(t)

	book := createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")
	if book.ID != 1 {
		t.Errorf("first book id = %d, want 1", book.ID)
	}
	if !book.Available {
		t.Error("new book should be available")
	}

	w, env := doJSON(t, router, http.MethodGet, "/books/1", nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("get book: status %d body %s", w.Code, w.Body.String())
	}

	w, env = doJSON(t, router, http.MethodPut, "/books/1", map[string]any{"genre": "Science Fiction"})
	if w.Code != http.StatusOK {
		t.Fatalf("update book: status %d body %s", w.Code, w.Body.String())
	}
	var updated models.Book
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Genre != "Science Fiction" {
		t.Errorf("genre = %q after update", updated.Genre)
	}
	if updated.Title != "Dune" {
		t.Errorf("title changed by partial update: %q", updated.Title)
	}

	w, env = doJSON(t, router, http.MethodDelete, "/books/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete book: status %d", w.Code)
	}
	if env.Message != "Book deleted successfully" {
		t.Errorf("delete message = %q", env.Message)
	}

	w, env = doJSON(t, router, http.MethodGet, "/books/1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get deleted book: status %d, want 404", w.Code)
	}
	if env.Success || env.Code != "BOOK_NOT_FOUND" {
		t.Errorf("error envelope = %+v", env)
	}
}

func TestListBooksFilters(t *testing.T) {
	router := testRouter(t)
	createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")
	createBook(t, router, "Emma", "Jane Austen", "Romance")
	createBook(t, router, "Persuasion", "Jane Austen", "Romance")

	w, env := doJSON(t, router, http.MethodGet, "/books?search=austen", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status %d", w.Code)
	}
	if env.Count == nil || *env.Count != 2 {
		t.Errorf("search=austen count = %v, want 2", env.Count)
	}

	_, env = doJSON(t, router, http.MethodGet, "/books?genre=romance", nil)
	if env.Count == nil || *env.Count != 2 {
		t.Errorf("genre=romance count = %v, want 2", env.Count)
	}

	_, env = doJSON(t, router, http.MethodGet, "/books?available=false", nil)
	if env.Count == nil || *env.Count != 0 {
		t.Errorf("available=false count = %v, want 0", env.Count)
	}
}

func TestCreateBookValidation(t *testing.T) {
	router := testRouter(t)

	w, env := doJSON(t, router, http.MethodPost, "/books", map[string]any{"author": "Nobody"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if env.Success || env.Code != "INVALID_REQUEST" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestInvalidIDParam(t *testing.T) {
	router := testRouter(t)
	for _, path := range []string{"/books/abc", "/books/0", "/users/-1"} {
		w, env := doJSON(t, router, http.MethodGet, path, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status %d, want 400", path, w.Code)
		}
		if env.Code != "INVALID_REQUEST" {
			t.Errorf("GET %s: code %q", path, env.Code)
		}
	}
}

func TestMemberHistory(t *testing.T) {
	router := testRouter(t)
	m := createMember(t, router, "Alice", "alice@example.com")
	b := createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")

	w, _ := doJSON(t, router, http.MethodPost, "/borrow/borrow", map[string]int{"userId": m.ID, "bookId": b.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("borrow status %d body %s", w.Code, w.Body.String())
	}

	w, env := doJSON(t, router, http.MethodGet, "/users/1/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history status %d", w.Code)
	}
	var hist api.MemberHistoryResponse
	if err := json.Unmarshal(env.Data, &hist); err != nil {
		t.Fatal(err)
	}
	if hist.User.ID != 1 {
		t.Errorf("history user id = %d", hist.User.ID)
	}
	if len(hist.BorrowingHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(hist.BorrowingHistory))
	}
	if hist.BorrowingHistory[0].BookID != b.ID {
		t.Errorf("history record bookId = %d", hist.BorrowingHistory[0].BookID)
	}
}

func TestBorrowReturnFlow(t *testing.T) {
	router := testRouter(t)
	m := createMember(t, router, "Alice", "alice@example.com")
	b := createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")
	ids := map[string]int{"userId": m.ID, "bookId": b.ID}

	w, env := doJSON(t, router, http.MethodPost, "/borrow/borrow", ids)
	if w.Code != http.StatusOK {
		t.Fatalf("borrow status %d body %s", w.Code, w.Body.String())
	}
	if env.Message != "Book borrowed successfully" {
		t.Errorf("borrow message = %q", env.Message)
	}
	var borrow struct {
		Record models.BorrowRecord `json:"record"`
		Book   models.Book         `json:"book"`
		User   models.Member       `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &borrow); err != nil {
		t.Fatal(err)
	}
	if got := borrow.Record.DueDate.String(); got != "2024-02-14" {
		t.Errorf("due date = %s, want 2024-02-14", got)
	}
	if borrow.Book.Available {
		t.Error("borrowed book still reported available")
	}

	// Second borrow of the same copy must fail.
	w, env = doJSON(t, router, http.MethodPost, "/borrow/borrow", ids)
	if w.Code != http.StatusBadRequest || env.Code != "BOOK_UNAVAILABLE" {
		t.Errorf("double borrow: status %d code %q", w.Code, env.Code)
	}

	w, env = doJSON(t, router, http.MethodPost, "/borrow/return", ids)
	if w.Code != http.StatusOK {
		t.Fatalf("return status %d body %s", w.Code, w.Body.String())
	}
	if env.Message != "Book returned successfully" {
		t.Errorf("return message = %q", env.Message)
	}
	var ret struct {
		Record models.BorrowRecord `json:"record"`
		Book   models.Book         `json:"book"`
	}
	if err := json.Unmarshal(env.Data, &ret); err != nil {
		t.Fatal(err)
	}
	if ret.Record.Status != models.StatusReturned {
		t.Errorf("record status = %q", ret.Record.Status)
	}
	if !ret.Book.Available {
		t.Error("returned book not available again")
	}

	// Returning again finds no open record.
	w, env = doJSON(t, router, http.MethodPost, "/borrow/return", ids)
	if w.Code != http.StatusNotFound || env.Code != "NO_OPEN_BORROW" {
		t.Errorf("repeat return: status %d code %q", w.Code, env.Code)
	}

	_, env = doJSON(t, router, http.MethodGet, "/borrow/history", nil)
	if env.Count == nil || *env.Count != 1 {
		t.Errorf("history count = %v, want 1", env.Count)
	}
}

func TestBorrowPreconditions(t *testing.T) {
	router := testRouter(t)
	createMember(t, router, "Alice", "alice@example.com")
	createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing ids", map[string]int{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown member", map[string]int{"userId": 99, "bookId": 1}, http.StatusNotFound, "MEMBER_NOT_FOUND"},
		{"unknown book", map[string]int{"userId": 1, "bookId": 99}, http.StatusNotFound, "BOOK_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := doJSON(t, router, http.MethodPost, "/borrow/borrow", tc.body)
			if w.Code != tc.status {
				t.Errorf("status = %d, want %d", w.Code, tc.status)
			}
			if env.Code != tc.code {
				t.Errorf("code = %q, want %q", env.Code, tc.code)
			}
		})
	}
}

func TestBorrowInvalidJSON(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/borrow/borrow", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestInactiveMemberCannotBorrow(t *testing.T) {
	router := testRouter(t)
	m := createMember(t, router, "Bob", "bob@example.com")
	b := createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")

	w, _ := doJSON(t, router, http.MethodPut, "/users/1", map[string]any{"active": false})
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status %d", w.Code)
	}

	w, env := doJSON(t, router, http.MethodPost, "/borrow/borrow", map[string]int{"userId": m.ID, "bookId": b.ID})
	if w.Code != http.StatusBadRequest || env.Code != "MEMBER_INACTIVE" {
		t.Errorf("inactive borrow: status %d code %q", w.Code, env.Code)
	}

	// No side effects: the book stays available.
	_, env = doJSON(t, router, http.MethodGet, "/books/1", nil)
	var book models.Book
	if err := json.Unmarshal(env.Data, &book); err != nil {
		t.Fatal(err)
	}
	if !book.Available {
		t.Error("rejected borrow flipped availability")
	}
}

func TestAuditEndpoint(t *testing.T) {
	books, dir, records := testutil.TestCollections(t)
	trail := testutil.TestAudit(t)
	engine := lending.New(books, dir, records, lending.WithClock(fixedToday), lending.WithAudit(trail))
	h := api.NewHandler(books, dir, records, engine, trail, nil)
	router := api.NewRouter(h, false, "", nil)

	m := createMember(t, router, "Alice", "alice@example.com")
	b := createBook(t, router, "Dune", "Frank Herbert", "Sci-Fi")
	doJSON(t, router, http.MethodPost, "/borrow/borrow", map[string]int{"userId": m.ID, "bookId": b.ID})

	w, env := doJSON(t, router, http.MethodGet, "/audit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit status %d", w.Code)
	}
	if env.Count == nil || *env.Count != 1 {
		t.Errorf("audit count = %v, want 1", env.Count)
	}
}

func TestAuthMiddleware(t *testing.T) {
	books, dir, records := testutil.TestCollections(t)
	engine := lending.New(books, dir, records, lending.WithClock(fixedToday))
	h := api.NewHandler(books, dir, records, engine, nil, nil)
	router := api.NewRouter(h, true, "secret-token", nil)

	req := httptest.NewRequest(http.MethodGet, "/books", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/books", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status %d, want 200", w.Code)
	}
}
