// internal/stream/port_test.go
package stream

import (
	"sync"

	"github.com/user/aetherchat/internal/types"
)

// memoryState is a minimal in-memory StatePort for exercising the stream
// core without the production state package (which would be an import
// cycle in tests and is covered separately).
type memoryState struct {
	mu       sync.Mutex
	messages []*types.Message
	activity []*types.ActivityEvent
	files    []*types.FileArtifact
	usage    types.UsageTotals
}

func newMemoryState() *memoryState {
	return &memoryState{}
}

func (s *memoryState) Messages() []*types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *memoryState) AppendMessage(msg *types.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *memoryState) UpdateMessage(id types.TurnID, fn func(*types.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range s.messages {
		if msg.ID == id {
			fn(msg)
			return
		}
	}
}

func (s *memoryState) AppendActivity(event *types.ActivityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, event)
}

func (s *memoryState) UpdateActivity(id types.EventID, fn func(*types.ActivityEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.activity {
		if event.ID == id {
			fn(event)
			return
		}
	}
}

func (s *memoryState) AddGeneratedFile(artifact *types.FileArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = append(s.files, artifact)
}

func (s *memoryState) AddUsage(usage types.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage.PromptTokens += usage.PromptTokens
	s.usage.CompletionTokens += usage.CompletionTokens
	s.usage.TotalTokens += usage.TotalTokens
	s.usage.Requests++
}

func (s *memoryState) Activity() []*types.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.ActivityEvent, len(s.activity))
	copy(out, s.activity)
	return out
}

func (s *memoryState) Files() []*types.FileArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*types.FileArtifact, len(s.files))
	copy(out, s.files)
	return out
}

func (s *memoryState) Usage() types.UsageTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *memoryState) findActivity(eventType types.ActivityType) []*types.ActivityEvent {
	var matched []*types.ActivityEvent
	for _, event := range s.Activity() {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

var _ types.StatePort = (*memoryState)(nil)
