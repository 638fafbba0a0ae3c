// internal/stream/projector.go
package stream

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/user/aetherchat/internal/types"
)

// Projector mirrors accumulator state changes into the activity timeline:
// one request event per turn, at most one thinking event created lazily on
// the first reasoning delta, and one event per tool-call id. Events are
// updated in place for status transitions, never removed.
type Projector struct {
	state           types.StatePort
	turnID          types.TurnID
	requestEventID  types.EventID
	thinkingEventID types.EventID
	toolEvents      map[string]types.EventID
	halted          atomic.Bool
}

// NewProjector creates a projector writing to the given state port on
// behalf of one turn.
func NewProjector(state types.StatePort, turnID types.TurnID) *Projector {
	return &Projector{
		state:      state,
		turnID:     turnID,
		toolEvents: make(map[string]types.EventID),
	}
}

// OnRequest emits the request lifecycle event. Payload carries request
// diagnostics (request id, user, app id, conversation id).
func (p *Projector) OnRequest(model string, payload map[string]any) {
	p.requestEventID = types.NewEventID()
	p.state.AppendActivity(&types.ActivityEvent{
		ID:          p.requestEventID,
		Type:        types.ActivityTypeStatus,
		Source:      types.SourceModel,
		Status:      types.StatusRunning,
		Title:       "Completion request started",
		Description: fmt.Sprintf("model=%s", model),
		Payload:     payload,
		At:          time.Now(),
		TurnID:      p.turnID,
	})
}

// OnReasoning creates the turn's thinking event on the first call and
// updates its details in place afterwards. The details are the full
// accumulated reasoning buffer, not the delta.
func (p *Projector) OnReasoning(details string) {
	if p.halted.Load() {
		return
	}
	if p.thinkingEventID == "" {
		p.thinkingEventID = types.NewEventID()
		p.state.AppendActivity(&types.ActivityEvent{
			ID:      p.thinkingEventID,
			Type:    types.ActivityTypeThinking,
			Source:  types.SourceModel,
			Status:  types.StatusRunning,
			Title:   "Reasoning stream",
			Details: details,
			At:      time.Now(),
			TurnID:  p.turnID,
		})
		return
	}
	p.state.UpdateActivity(p.thinkingEventID, func(event *types.ActivityEvent) {
		event.Details = details
	})
}

// OnToolCall creates or updates the timeline entry for one tool call.
// The entry's type is derived from the call's inferred source at creation;
// later fragments update title and arguments in place.
func (p *Projector) OnToolCall(call *types.ToolCall) {
	if p.halted.Load() {
		return
	}
	eventID, ok := p.toolEvents[call.ID]
	if !ok {
		eventID = types.NewEventID()
		p.toolEvents[call.ID] = eventID
		p.state.AppendActivity(&types.ActivityEvent{
			ID:         eventID,
			Type:       activityTypeFor(call.Source),
			Source:     call.Source,
			Status:     types.StatusRunning,
			Title:      call.Name,
			Arguments:  call.Arguments,
			At:         time.Now(),
			TurnID:     p.turnID,
			ToolCallID: call.ID,
		})
		return
	}
	p.state.UpdateActivity(eventID, func(event *types.ActivityEvent) {
		event.Title = call.Name
		event.Arguments = call.Arguments
		event.Status = types.StatusRunning
	})
}

// OnComplete finalizes the turn's timeline: every tool-call event and the
// thinking event go to success, the request event gets a latency
// description, and file-producing tool calls emit generated artifacts.
func (p *Projector) OnComplete(model string, latency time.Duration, calls []*types.ToolCall) {
	if p.halted.Load() {
		return
	}
	for _, call := range calls {
		eventID, ok := p.toolEvents[call.ID]
		if !ok {
			continue
		}
		p.state.UpdateActivity(eventID, func(event *types.ActivityEvent) {
			event.Status = types.StatusSuccess
			event.Details = "Completed"
		})
		if artifact := ExtractArtifact(call, eventID); artifact != nil {
			p.state.AddGeneratedFile(artifact)
		}
	}

	if p.thinkingEventID != "" {
		p.state.UpdateActivity(p.thinkingEventID, func(event *types.ActivityEvent) {
			event.Status = types.StatusSuccess
		})
	}

	p.state.UpdateActivity(p.requestEventID, func(event *types.ActivityEvent) {
		event.Status = types.StatusSuccess
		event.Description = fmt.Sprintf("model=%s, latency=%dms", model, latency.Milliseconds())
	})
}

// OnError marks the request event failed with the failure description.
func (p *Projector) OnError(msg string) {
	if p.halted.Load() {
		return
	}
	p.state.UpdateActivity(p.requestEventID, func(event *types.ActivityEvent) {
		event.Status = types.StatusError
		event.Description = msg
	})
}

// Halt stops further projection for the turn. Used on user-initiated
// cancellation, which is expected control flow rather than an error;
// events already written stay as they are.
func (p *Projector) Halt() {
	p.halted.Store(true)
}
