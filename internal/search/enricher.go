// internal/search/enricher.go
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	defaultResultCount = 5
	maxSnippetChars    = 2000
)

// WebEnricher builds a search-derived context block for a user message.
// Failures are never fatal to a turn; they are logged and the request
// proceeds unenriched.
type WebEnricher struct {
	searcher *BraveClient
	reader   *PageReader
	count    int
}

// NewWebEnricher creates an enricher backed by Brave web search. If reader
// is non-nil the top result's page is fetched and a snippet appended.
func NewWebEnricher(searcher *BraveClient, reader *PageReader) *WebEnricher {
	return &WebEnricher{
		searcher: searcher,
		reader:   reader,
		count:    defaultResultCount,
	}
}

// Context returns a formatted block of search results for the query.
// ok=false means enrichment is unavailable for this turn.
func (e *WebEnricher) Context(ctx context.Context, query string) (string, bool) {
	if e.searcher == nil || strings.TrimSpace(query) == "" {
		return "", false
	}

	results, err := e.searcher.Search(ctx, query, e.count)
	if err != nil {
		slog.Warn("web search failed", "query", query, "error", err)
		return "", false
	}
	if len(results) == 0 {
		return "", false
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n\n", i+1, r.Title, r.URL, r.Description)
	}

	if e.reader != nil {
		if snippet := e.topPageSnippet(ctx, results[0].URL); snippet != "" {
			fmt.Fprintf(&sb, "Content from %s:\n%s\n", results[0].URL, snippet)
		}
	}

	return strings.TrimRight(sb.String(), "\n"), true
}

func (e *WebEnricher) topPageSnippet(ctx context.Context, pageURL string) string {
	md, err := e.reader.Read(ctx, pageURL)
	if err != nil {
		slog.Warn("page fetch failed", "url", pageURL, "error", err)
		return ""
	}
	if len(md) > maxSnippetChars {
		md = md[:maxSnippetChars] + "\n[truncated]"
	}
	return md
}
