// internal/state/index.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/aetherchat/internal/types"
)

// Index is the JSON-file-backed conversation index. It stores index rows
// in conversations/conversations.json and creates per-conversation
// directories at conversations/<conversationID>/.
type Index struct {
	root string
	mu   sync.RWMutex
}

// NewIndex creates a file-backed conversation index rooted at the given
// directory.
func NewIndex(root string) *Index {
	return &Index{root: root}
}

func (s *Index) indexPath() string {
	return filepath.Join(s.root, "conversations", "conversations.json")
}

func (s *Index) conversationsDir() string {
	return filepath.Join(s.root, "conversations")
}

func (s *Index) conversationDir(id types.ConversationID) string {
	return filepath.Join(s.root, "conversations", string(id))
}

func (s *Index) loadIndex() (map[types.ConversationID]*types.ConversationIndex, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[types.ConversationID]*types.ConversationIndex), nil
		}
		return nil, fmt.Errorf("read conversation index: %w", err)
	}

	var rows []*types.ConversationIndex
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal conversation index: %w", err)
	}

	index := make(map[types.ConversationID]*types.ConversationIndex, len(rows))
	for _, row := range rows {
		index[row.ConversationID] = row
	}
	return index, nil
}

// saveIndex marshals the rows with indentation and writes atomically.
func (s *Index) saveIndex(index map[types.ConversationID]*types.ConversationIndex) error {
	rows := make([]*types.ConversationIndex, 0, len(index))
	for _, row := range index {
		rows = append(rows, row)
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal conversation index: %w", err)
	}

	if err := os.MkdirAll(s.conversationsDir(), 0o755); err != nil {
		return fmt.Errorf("create conversations dir: %w", err)
	}

	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := os.Rename(tmp, s.indexPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp index: %w", err)
	}
	return nil
}

// ResolveOrCreate returns the id of the conversation with the given
// title, creating a new one if needed.
func (s *Index) ResolveOrCreate(_ context.Context, title, model string) (types.ConversationID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return "", err
	}

	for _, row := range index {
		if row.Title == title {
			return row.ConversationID, nil
		}
	}

	now := time.Now()
	id := types.NewConversationID()
	index[id] = &types.ConversationIndex{
		ConversationID: id,
		Title:          title,
		Model:          model,
		Status:         "active",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.saveIndex(index); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.conversationDir(id), 0o755); err != nil {
		return "", fmt.Errorf("create conversation dir: %w", err)
	}

	return id, nil
}

// Get returns the index row with the given id.
func (s *Index) Get(_ context.Context, id types.ConversationID) (*types.ConversationIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	row, ok := index[id]
	if !ok {
		return nil, fmt.Errorf("conversation not found: %s", id)
	}
	return row, nil
}

// List returns all index rows.
func (s *Index) List(_ context.Context) ([]*types.ConversationIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	rows := make([]*types.ConversationIndex, 0, len(index))
	for _, row := range index {
		rows = append(rows, row)
	}
	return rows, nil
}

// Update persists changes to the given row, setting UpdatedAt to now.
func (s *Index) Update(_ context.Context, conv *types.ConversationIndex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}

	if _, ok := index[conv.ConversationID]; !ok {
		return fmt.Errorf("conversation not found: %s", conv.ConversationID)
	}

	conv.UpdatedAt = time.Now()
	index[conv.ConversationID] = conv

	return s.saveIndex(index)
}
