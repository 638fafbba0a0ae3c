// internal/stream/artifact.go
package stream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/user/aetherchat/internal/types"
)

var fileToolKeywords = []string{"file", "artifact", "write", "save"}

// ExtractArtifact inspects a finalized tool call for file-producing
// intent and derives a generated-file record from its arguments. Returns
// nil when the tool is not file-shaped or no display name can be derived.
// The record captures intent only; size is unknown at this layer.
func ExtractArtifact(call *types.ToolCall, sourceEventID types.EventID) *types.FileArtifact {
	lowered := strings.ToLower(call.Name)
	fileTool := false
	for _, keyword := range fileToolKeywords {
		if strings.Contains(lowered, keyword) {
			fileTool = true
			break
		}
	}
	if !fileTool {
		return nil
	}

	args := parseArguments(call.Arguments)

	path := firstString(args, "path", "file_path", "output_path")
	name := firstString(args, "name", "filename")
	if name == "" && path != "" {
		segments := strings.Split(path, "/")
		name = segments[len(segments)-1]
	}
	if name == "" {
		return nil
	}

	return &types.FileArtifact{
		ID:            types.NewArtifactID(),
		Name:          name,
		Size:          0,
		Kind:          types.ArtifactGenerated,
		Path:          path,
		CreatedAt:     time.Now(),
		SourceEventID: sourceEventID,
	}
}

// parseArguments parses accumulated argument text as a JSON object.
// Anything else (empty, malformed, array, scalar) is treated as absent.
func parseArguments(input string) map[string]any {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(input), &parsed); err != nil {
		return nil
	}
	return parsed
}

func firstString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := args[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
