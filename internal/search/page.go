// internal/search/page.go
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const maxPageChars = 50000

// PageReader fetches a URL and converts its HTML content to markdown.
type PageReader struct {
	client *http.Client
}

// NewPageReader creates a PageReader with a bounded fetch timeout.
func NewPageReader() *PageReader {
	return &PageReader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Read fetches the URL and returns its content as markdown, truncated to
// a sane size.
func (r *PageReader) Read(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Aetherchat/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	if len(md) > maxPageChars {
		md = md[:maxPageChars] + "\n\n[Content truncated]"
	}
	return md, nil
}
