// internal/stream/event.go
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/user/aetherchat/internal/types"
)

// Event is one interpreted gateway frame. Zero-valued fields mean "no
// update this event", never "reset to empty".
type Event struct {
	Content      string
	Reasoning    string
	ToolCalls    []ToolFragment
	FinishReason string
	Usage        *types.Usage
}

// ToolFragment is a partial tool-call delta. ID may be empty when the
// gateway omits it; Index is the position within the frame's tool_calls
// array and backs the synthetic-id fallback.
type ToolFragment struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Wire shapes for an OpenAI-compatible streaming chunk.
type wireFrame struct {
	Choices []wireChoice `json:"choices"`
	Usage   *types.Usage `json:"usage"`
}

type wireChoice struct {
	Delta        wireDelta `json:"delta"`
	FinishReason string    `json:"finish_reason"`
}

type wireDelta struct {
	Content          string         `json:"content"`
	ReasoningContent string         `json:"reasoning_content"`
	Reasoning        string         `json:"reasoning"`
	Thinking         string         `json:"thinking"`
	ToolCalls        []wireToolCall `json:"tool_calls"`
}

type wireToolCall struct {
	Index    *int         `json:"index"`
	ID       string       `json:"id"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ParseEvent interprets one frame payload. Malformed JSON is an error the
// caller logs and discards; one bad frame must never abort the stream.
// Frames without a first choice produce an empty Event (usage may still
// be present on usage-only frames).
func ParseEvent(payload string) (*Event, error) {
	var frame wireFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}

	event := &Event{Usage: frame.Usage}
	if len(frame.Choices) == 0 {
		return event, nil
	}

	choice := frame.Choices[0]
	event.Content = choice.Delta.Content
	event.Reasoning = reasoningDelta(choice.Delta)
	event.FinishReason = choice.FinishReason

	for i, tc := range choice.Delta.ToolCalls {
		index := i
		if tc.Index != nil {
			index = *tc.Index
		}
		event.ToolCalls = append(event.ToolCalls, ToolFragment{
			Index:     index,
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return event, nil
}

// reasoningDelta checks the three field names gateways use for reasoning
// text, in priority order. First non-empty wins per event.
func reasoningDelta(delta wireDelta) string {
	if delta.ReasoningContent != "" {
		return delta.ReasoningContent
	}
	if delta.Reasoning != "" {
		return delta.Reasoning
	}
	return delta.Thinking
}
