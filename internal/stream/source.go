// internal/stream/source.go
package stream

import (
	"strings"

	"github.com/user/aetherchat/internal/types"
)

// sourceRules maps tool-name keywords to source categories. Evaluated
// top to bottom, first matching group wins.
var sourceRules = []struct {
	keywords []string
	source   types.ActivitySource
}{
	{[]string{"fabric"}, types.SourceMCPFabric},
	{[]string{"mcp"}, types.SourceMCP},
	{[]string{"terminal", "shell", "bash", "command", "computer"}, types.SourceTerminal},
	{[]string{"browser", "web", "navigate"}, types.SourceBrowser},
	{[]string{"file", "artifact", "write"}, types.SourceFile},
}

// InferSource classifies a tool by case-insensitive substring match of
// its name against the ordered rule table.
func InferSource(toolName string) types.ActivitySource {
	lowered := strings.ToLower(toolName)
	for _, rule := range sourceRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.source
			}
		}
	}
	return types.SourceTool
}

// activityTypeFor maps a source category to the timeline entry type used
// for its tool-call event.
func activityTypeFor(source types.ActivitySource) types.ActivityType {
	switch source {
	case types.SourceTerminal:
		return types.ActivityTypeTerminal
	case types.SourceBrowser:
		return types.ActivityTypeBrowser
	case types.SourceFile:
		return types.ActivityTypeFile
	default:
		return types.ActivityTypeToolCall
	}
}
