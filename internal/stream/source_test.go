// internal/stream/source_test.go
package stream

import (
	"testing"

	"github.com/user/aetherchat/internal/types"
)

func TestInferSource(t *testing.T) {
	tests := []struct {
		name string
		want types.ActivitySource
	}{
		{"fabric_query", types.SourceMCPFabric},
		{"mcp_list_tools", types.SourceMCP},
		{"run_bash", types.SourceTerminal},
		{"Computer_Use", types.SourceTerminal},
		{"navigate_to_page", types.SourceBrowser},
		{"search_web", types.SourceBrowser},
		{"write_file", types.SourceFile},
		{"save_artifact", types.SourceFile},
		{"calculator", types.SourceTool},
		{"", types.SourceTool},
	}

	for _, tt := range tests {
		if got := InferSource(tt.name); got != tt.want {
			t.Errorf("InferSource(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInferSourceOrderIsTieBreak(t *testing.T) {
	// fabric outranks mcp, mcp outranks everything below it.
	if got := InferSource("mcpfabric_call"); got != types.SourceMCPFabric {
		t.Errorf("expected mcpfabric, got %q", got)
	}
	if got := InferSource("mcp_write_file"); got != types.SourceMCP {
		t.Errorf("expected mcp to win over file, got %q", got)
	}
}

func TestActivityTypeForSource(t *testing.T) {
	tests := []struct {
		source types.ActivitySource
		want   types.ActivityType
	}{
		{types.SourceTerminal, types.ActivityTypeTerminal},
		{types.SourceBrowser, types.ActivityTypeBrowser},
		{types.SourceFile, types.ActivityTypeFile},
		{types.SourceTool, types.ActivityTypeToolCall},
		{types.SourceMCP, types.ActivityTypeToolCall},
		{types.SourceMCPFabric, types.ActivityTypeToolCall},
	}

	for _, tt := range tests {
		if got := activityTypeFor(tt.source); got != tt.want {
			t.Errorf("activityTypeFor(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
