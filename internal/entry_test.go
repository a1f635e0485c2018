package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRootHandlerListsEndpoints(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	rootHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Message   string                       `json:"message"`
		Endpoints map[string]map[string]string `json:"endpoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Message == "" {
		t.Error("missing message")
	}
	for _, group := range []string{"books", "users", "borrow"} {
		if _, ok := body.Endpoints[group]; !ok {
			t.Errorf("endpoint group %q missing", group)
		}
	}
}

func TestNotFoundHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	w := httptest.NewRecorder()
	notFoundHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		RequestedURL string `json:"requestedUrl"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Success {
		t.Error("success should be false")
	}
	if body.RequestedURL != "/no/such/route" {
		t.Errorf("requestedUrl = %q", body.RequestedURL)
	}
}
