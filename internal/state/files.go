// internal/state/files.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/user/aetherchat/internal/types"
)

// Files stores artifact records as individual JSON files at
// conversations/<conversationID>/files/<artifactID>.json. Records are
// metadata only; artifact content is never stored here.
type Files struct {
	root string
}

// NewFiles creates a file-backed artifact record store rooted at the
// given directory.
func NewFiles(root string) *Files {
	return &Files{root: root}
}

func (f *Files) filesDir(conversationID types.ConversationID) string {
	return filepath.Join(f.root, "conversations", string(conversationID), "files")
}

func (f *Files) filePath(conversationID types.ConversationID, id types.ArtifactID) string {
	return filepath.Join(f.filesDir(conversationID), string(id)+".json")
}

// findRecord locates an artifact file by ID across all conversations.
func (f *Files) findRecord(id types.ArtifactID) (string, error) {
	pattern := filepath.Join(f.root, "conversations", "*", "files", string(id)+".json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob artifact: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("artifact not found: %s", id)
	}
	return matches[0], nil
}

func (f *Files) readRecord(path string) (*types.FileArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}
	var artifact types.FileArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &artifact, nil
}

// Put persists one artifact record. Writes are atomic via temp file +
// rename.
func (f *Files) Put(_ context.Context, conversationID types.ConversationID, artifact *types.FileArtifact) error {
	content, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	dir := f.filesDir(conversationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create files dir: %w", err)
	}

	target := f.filePath(conversationID, artifact.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp artifact: %w", err)
	}
	return nil
}

// Get returns the record for the given artifact.
func (f *Files) Get(_ context.Context, id types.ArtifactID) (*types.FileArtifact, error) {
	path, err := f.findRecord(id)
	if err != nil {
		return nil, err
	}
	return f.readRecord(path)
}

// List returns the conversation's artifact records, oldest first.
func (f *Files) List(_ context.Context, conversationID types.ConversationID) ([]*types.FileArtifact, error) {
	pattern := filepath.Join(f.filesDir(conversationID), "*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob files: %w", err)
	}

	artifacts := make([]*types.FileArtifact, 0, len(matches))
	for _, path := range matches {
		artifact, err := f.readRecord(path)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
	})
	return artifacts, nil
}
