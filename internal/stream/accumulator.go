// internal/stream/accumulator.go
package stream

import (
	"fmt"
	"strings"
	"time"

	"github.com/user/aetherchat/internal/types"
)

// Accumulator owns the mutable state of one in-flight assistant turn:
// concatenated text, concatenated reasoning, and tool calls assembled
// from fragments. Single-writer; the controller's decode loop is the only
// mutator for a given turn.
type Accumulator struct {
	turnID       types.TurnID
	text         strings.Builder
	reasoning    strings.Builder
	order        []string
	calls        map[string]*types.ToolCall
	finishReason string
	usage        *types.Usage
}

// NewAccumulator creates an empty accumulator for the given turn.
func NewAccumulator(turnID types.TurnID) *Accumulator {
	return &Accumulator{
		turnID: turnID,
		calls:  make(map[string]*types.ToolCall),
	}
}

// AppendText concatenates a content delta and returns the full text so
// far, so consumers always see the complete current text.
func (a *Accumulator) AppendText(delta string) string {
	a.text.WriteString(delta)
	return a.text.String()
}

// AppendReasoning concatenates a reasoning delta into a buffer separate
// from the visible text and returns the full reasoning so far.
func (a *Accumulator) AppendReasoning(delta string) string {
	a.reasoning.WriteString(delta)
	return a.reasoning.String()
}

// ApplyToolFragment folds a fragment into its tool call, creating the
// call on first sight. Fragments resolve by gateway id, falling back to a
// positional synthetic id when the gateway omits one; fragments never
// merge across different ids. Argument text is strictly appended in
// arrival order. A non-empty fragment name replaces the current name and
// the source is re-inferred from it.
func (a *Accumulator) ApplyToolFragment(frag ToolFragment) *types.ToolCall {
	id := frag.ID
	if id == "" {
		id = fmt.Sprintf("%s-tool-%d", a.turnID, frag.Index)
	}

	call, ok := a.calls[id]
	if !ok {
		name := frag.Name
		if name == "" {
			name = "tool"
		}
		call = &types.ToolCall{
			ID:        id,
			Name:      name,
			Status:    types.StatusRunning,
			Source:    InferSource(name),
			StartedAt: time.Now(),
		}
		a.calls[id] = call
		a.order = append(a.order, id)
	}

	if frag.Name != "" {
		call.Name = frag.Name
	}
	call.Arguments += frag.Arguments
	call.Source = InferSource(call.Name)
	return call
}

// RecordFinish stores the finish reason unconditionally.
func (a *Accumulator) RecordFinish(reason string) {
	a.finishReason = reason
}

// RecordUsage stores usage totals, last write wins. A later event's usage
// supersedes an earlier one.
func (a *Accumulator) RecordUsage(usage types.Usage) {
	a.usage = &usage
}

func (a *Accumulator) Text() string {
	return a.text.String()
}

func (a *Accumulator) Reasoning() string {
	return a.reasoning.String()
}

// ToolCalls returns the turn's tool calls in first-seen order.
func (a *Accumulator) ToolCalls() []*types.ToolCall {
	calls := make([]*types.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		calls = append(calls, a.calls[id])
	}
	return calls
}

// FinishReason returns the recorded reason, defaulting to "stop" when the
// gateway never sent one.
func (a *Accumulator) FinishReason() string {
	if a.finishReason == "" {
		return "stop"
	}
	return a.finishReason
}

func (a *Accumulator) Usage() *types.Usage {
	return a.usage
}
