// internal/search/page_test.go
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageReaderConvertsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Aetherchat/") {
			t.Errorf("unexpected User-Agent %q", ua)
		}
		fmt.Fprint(w, "<html><body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body></html>")
	}))
	defer server.Close()

	md, err := NewPageReader().Read(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(md, "Title") {
		t.Errorf("markdown missing heading: %q", md)
	}
	if !strings.Contains(md, "**bold**") {
		t.Errorf("markdown missing bold text: %q", md)
	}
}

func TestPageReaderTruncatesLongPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>")
		for i := 0; i < 10000; i++ {
			fmt.Fprint(w, "lorem ipsum dolor ")
		}
		fmt.Fprint(w, "</p></body></html>")
	}))
	defer server.Close()

	md, err := NewPageReader().Read(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.HasSuffix(md, "[Content truncated]") {
		t.Error("expected truncation marker")
	}
	if len(md) > maxPageChars+len("\n\n[Content truncated]") {
		t.Errorf("markdown too long: %d chars", len(md))
	}
}

func TestPageReaderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewPageReader().Read(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestPageReaderEmptyURL(t *testing.T) {
	if _, err := NewPageReader().Read(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
