// internal/state/conversation.go
package state

import (
	"sync"

	"github.com/user/aetherchat/internal/types"
)

// DefaultActivityLimit caps the activity timeline. Oldest entries are
// evicted first, so memory stays bounded regardless of run length.
const DefaultActivityLimit = 300

// Conversation is the in-memory presentation state for one conversation:
// message list, activity timeline, generated files, and the running usage
// counter. Mutations come from a single active stream loop; reads may
// happen concurrently from the HTTP API and observe intermediate states.
type Conversation struct {
	id            types.ConversationID
	activityLimit int

	mu       sync.RWMutex
	messages []*types.Message
	activity []*types.ActivityEvent
	files    []*types.FileArtifact
	usage    types.UsageTotals
}

// NewConversation creates an empty conversation with the default
// activity cap.
func NewConversation(id types.ConversationID) *Conversation {
	return &Conversation{id: id, activityLimit: DefaultActivityLimit}
}

// NewConversationWithLimit creates an empty conversation with a custom
// activity cap. Limits below 1 fall back to the default.
func NewConversationWithLimit(id types.ConversationID, limit int) *Conversation {
	if limit < 1 {
		limit = DefaultActivityLimit
	}
	return &Conversation{id: id, activityLimit: limit}
}

func (c *Conversation) ID() types.ConversationID {
	return c.id
}

// Messages returns a snapshot of the message list. Message pointers are
// shared with the writer, so readers get monotonically-growing content.
func (c *Conversation) Messages() []*types.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) AppendMessage(msg *types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// UpdateMessage applies fn to the message with the given id under the
// write lock. Unknown ids are ignored.
func (c *Conversation) UpdateMessage(id types.TurnID, fn func(*types.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.messages {
		if msg.ID == id {
			fn(msg)
			return
		}
	}
}

// AppendActivity adds a timeline entry, evicting the oldest entries when
// the cap is exceeded. The newest entry is always present after an append.
func (c *Conversation) AppendActivity(event *types.ActivityEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activity = append(c.activity, event)
	if len(c.activity) > c.activityLimit {
		overflow := len(c.activity) - c.activityLimit
		c.activity = append(c.activity[:0:0], c.activity[overflow:]...)
	}
}

// UpdateActivity applies fn to the event with the given id under the
// write lock. Events already evicted are ignored.
func (c *Conversation) UpdateActivity(id types.EventID, fn func(*types.ActivityEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, event := range c.activity {
		if event.ID == id {
			fn(event)
			return
		}
	}
}

// Activity returns a snapshot of the timeline, oldest first.
func (c *Conversation) Activity() []*types.ActivityEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.ActivityEvent, len(c.activity))
	copy(out, c.activity)
	return out
}

func (c *Conversation) AddGeneratedFile(artifact *types.FileArtifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, artifact)
}

// GeneratedFiles returns a snapshot of derived file artifacts.
func (c *Conversation) GeneratedFiles() []*types.FileArtifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.FileArtifact, len(c.files))
	copy(out, c.files)
	return out
}

// AddUsage folds one completed turn's usage into the running totals and
// counts the request.
func (c *Conversation) AddUsage(usage types.Usage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.PromptTokens += usage.PromptTokens
	c.usage.CompletionTokens += usage.CompletionTokens
	c.usage.TotalTokens += usage.TotalTokens
	c.usage.Requests++
}

// UsageTotals returns the running usage counter.
func (c *Conversation) UsageTotals() types.UsageTotals {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usage
}
