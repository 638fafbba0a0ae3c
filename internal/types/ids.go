// internal/types/ids.go
package types

import (
	"github.com/google/uuid"
)

type ConversationID string
type TurnID string
type EventID string
type ArtifactID string

func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func NewArtifactID() ArtifactID {
	return ArtifactID(uuid.New().String())
}
