// internal/types/interfaces.go
package types

import (
	"context"
)

// StatePort is the externally-owned presentation state the stream core
// writes to. Implementations must tolerate concurrent readers observing
// intermediate states; all mutations come from a single active loop.
type StatePort interface {
	Messages() []*Message
	AppendMessage(msg *Message)
	UpdateMessage(id TurnID, fn func(*Message))
	AppendActivity(event *ActivityEvent)
	UpdateActivity(id EventID, fn func(*ActivityEvent))
	AddGeneratedFile(artifact *FileArtifact)
	AddUsage(usage Usage)
}

type ConversationStore interface {
	ResolveOrCreate(ctx context.Context, title, model string) (ConversationID, error)
	Get(ctx context.Context, id ConversationID) (*ConversationIndex, error)
	List(ctx context.Context) ([]*ConversationIndex, error)
	Update(ctx context.Context, conv *ConversationIndex) error
}

type TranscriptStore interface {
	Append(ctx context.Context, conversationID ConversationID, msg *Message) error
	Tail(ctx context.Context, conversationID ConversationID, limit int) ([]*Message, error)
	Count(ctx context.Context, conversationID ConversationID) (int64, error)
}

type FileStore interface {
	Put(ctx context.Context, conversationID ConversationID, artifact *FileArtifact) error
	Get(ctx context.Context, id ArtifactID) (*FileArtifact, error)
	List(ctx context.Context, conversationID ConversationID) ([]*FileArtifact, error)
}
