// internal/types/models.go
package types

import (
	"time"
)

// ActivityType classifies a timeline entry.
type ActivityType string

const (
	ActivityTypeStatus     ActivityType = "status"
	ActivityTypeThinking   ActivityType = "thinking"
	ActivityTypeToolCall   ActivityType = "tool_call"
	ActivityTypeToolResult ActivityType = "tool_result"
	ActivityTypeTerminal   ActivityType = "terminal"
	ActivityTypeBrowser    ActivityType = "browser"
	ActivityTypeFile       ActivityType = "file"
)

// ActivitySource is the inferred origin of a timeline entry or tool call.
type ActivitySource string

const (
	SourceSystem    ActivitySource = "system"
	SourceModel     ActivitySource = "model"
	SourceTool      ActivitySource = "tool"
	SourceMCP       ActivitySource = "mcp"
	SourceMCPFabric ActivitySource = "mcpfabric"
	SourceTerminal  ActivitySource = "terminal"
	SourceBrowser   ActivitySource = "browser"
	SourceFile      ActivitySource = "file"
)

// Status is a lifecycle state shared by tool calls and activity events.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
)

// ArtifactKind distinguishes user uploads from tool-generated records.
type ArtifactKind string

const (
	ArtifactUploaded  ArtifactKind = "uploaded"
	ArtifactGenerated ArtifactKind = "generated"
)

// Message is one entry in a conversation. Assistant messages carry
// metadata once their turn is finalized.
type Message struct {
	ID        TurnID           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata is the finalized record of an assistant turn.
type MessageMetadata struct {
	Model        string       `json:"model,omitempty"`
	Tokens       *TokenCounts `json:"tokens,omitempty"`
	LatencyMS    int64        `json:"latency_ms,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Timestamp    time.Time    `json:"timestamp,omitempty"`
	Thinking     string       `json:"thinking,omitempty"`
	ToolCalls    []*ToolCall  `json:"tool_calls,omitempty"`
	RawUsage     *Usage       `json:"raw_usage,omitempty"`
}

// TokenCounts is the input/output pair reported for one turn.
type TokenCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// ToolCall is an in-progress or finalized tool invocation assembled from
// stream fragments. Never persisted on its own, only inside message metadata.
type ToolCall struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Arguments   string         `json:"arguments"`
	Status      Status         `json:"status"`
	Source      ActivitySource `json:"source"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// ActivityEvent is one row in the operator-visible timeline.
type ActivityEvent struct {
	ID          EventID        `json:"id"`
	Type        ActivityType   `json:"type"`
	Source      ActivitySource `json:"source"`
	Status      Status         `json:"status"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Arguments   string         `json:"arguments,omitempty"`
	Details     string         `json:"details,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	At          time.Time      `json:"at"`
	TurnID      TurnID         `json:"turn_id,omitempty"`
	ToolCallID  string         `json:"tool_call_id,omitempty"`
}

// FileArtifact records a file-like object by metadata only. Generated
// artifacts capture intent inferred from tool arguments, not a verified
// filesystem write.
type FileArtifact struct {
	ID            ArtifactID   `json:"id"`
	Name          string       `json:"name"`
	Size          int64        `json:"size"`
	Kind          ArtifactKind `json:"kind"`
	Path          string       `json:"path,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	SourceEventID EventID      `json:"source_event_id,omitempty"`
}

// Usage is the gateway-reported token usage for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UsageTotals is the running per-conversation counter, incremented once
// per completed turn.
type UsageTotals struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	Requests         int `json:"requests"`
}

// ConversationIndex is one row in the persisted conversation index.
type ConversationIndex struct {
	ConversationID ConversationID `json:"conversation_id"`
	Title          string         `json:"title"`
	Model          string         `json:"model"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	LastTurnID     TurnID         `json:"last_turn_id,omitempty"`
	MessageCount   int64          `json:"message_count"`
}
