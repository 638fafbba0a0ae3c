// internal/search/brave_test.go
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fakeBraveServer(t *testing.T, handler http.HandlerFunc) *BraveClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewBraveClient("test-key")
	client.baseURL = server.URL
	return client
}

func TestBraveSearch(t *testing.T) {
	var gotToken, gotQuery, gotCount string
	client := fakeBraveServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Subscription-Token")
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"web":{"results":[
			{"title":"Go","url":"https://go.dev","description":"The Go programming language"},
			{"title":"Go blog","url":"https://go.dev/blog","description":"News from the Go project"}
		]}}`)
	})

	results, err := client.Search(context.Background(), "golang", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotToken != "test-key" {
		t.Errorf("subscription token = %q, want test-key", gotToken)
	}
	if gotQuery != "golang" {
		t.Errorf("query = %q, want golang", gotQuery)
	}
	if gotCount != "5" {
		t.Errorf("count = %q, want default 5", gotCount)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "Go" || results[0].URL != "https://go.dev" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestBraveSearchCountCapped(t *testing.T) {
	var gotCount string
	client := fakeBraveServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotCount = r.URL.Query().Get("count")
		fmt.Fprint(w, `{"web":{"results":[]}}`)
	})

	if _, err := client.Search(context.Background(), "golang", 50); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotCount != "20" {
		t.Errorf("count = %q, want capped 20", gotCount)
	}
}

func TestBraveSearchEmptyQuery(t *testing.T) {
	client := NewBraveClient("test-key")
	if _, err := client.Search(context.Background(), "", 5); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestBraveSearchAPIError(t *testing.T) {
	client := fakeBraveServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "invalid token")
	})

	_, err := client.Search(context.Background(), "golang", 5)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}
