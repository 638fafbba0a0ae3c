// internal/state/transcript.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/aetherchat/internal/types"
)

// Transcripts is a JSONL-backed append-only message log. Finalized
// messages are stored per-conversation in
// conversations/<conversationID>/transcript.jsonl.
type Transcripts struct {
	root  string
	mu    sync.Mutex
	locks map[types.ConversationID]*sync.Mutex
}

// NewTranscripts creates a file-backed transcript store rooted at the
// given directory.
func NewTranscripts(root string) *Transcripts {
	return &Transcripts{
		root:  root,
		locks: make(map[types.ConversationID]*sync.Mutex),
	}
}

// getLock returns the per-conversation mutex, creating one if it doesn't exist.
func (t *Transcripts) getLock(conversationID types.ConversationID) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lock, ok := t.locks[conversationID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	t.locks[conversationID] = lock
	return lock
}

func (t *Transcripts) transcriptPath(conversationID types.ConversationID) string {
	return filepath.Join(t.root, "conversations", string(conversationID), "transcript.jsonl")
}

// Append adds a finalized message to the conversation's transcript.
func (t *Transcripts) Append(_ context.Context, conversationID types.ConversationID, msg *types.Message) error {
	lock := t.getLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(t.transcriptPath(conversationID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create conversation dir: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	f, err := os.OpenFile(t.transcriptPath(conversationID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// Tail returns the last N messages for the given conversation.
func (t *Transcripts) Tail(_ context.Context, conversationID types.ConversationID, limit int) ([]*types.Message, error) {
	lock := t.getLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	messages, err := t.readAll(conversationID)
	if err != nil {
		return nil, err
	}

	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Count returns the number of persisted messages for the conversation.
func (t *Transcripts) Count(_ context.Context, conversationID types.ConversationID) (int64, error) {
	lock := t.getLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(t.transcriptPath(conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var count int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan transcript: %w", err)
	}
	return count, nil
}

// readAll loads the full transcript. Caller must hold the conversation lock.
func (t *Transcripts) readAll(conversationID types.ConversationID) ([]*types.Message, error) {
	f, err := os.Open(t.transcriptPath(conversationID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	var messages []*types.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg types.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return messages, nil
}
