// Package state provides the in-memory conversation state and its
// filesystem-backed persistence stores.
package state

import "github.com/user/aetherchat/internal/types"

// Compile-time interface compliance checks.
var _ types.StatePort = (*Conversation)(nil)
var _ types.ConversationStore = (*Index)(nil)
var _ types.TranscriptStore = (*Transcripts)(nil)
var _ types.FileStore = (*Files)(nil)
