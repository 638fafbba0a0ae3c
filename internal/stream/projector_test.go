// internal/stream/projector_test.go
package stream

import (
	"strings"
	"testing"
	"time"

	"github.com/user/aetherchat/internal/types"
)

func TestProjectorRequestLifecycle(t *testing.T) {
	state := newMemoryState()
	projector := NewProjector(state, "turn-1")

	projector.OnRequest("m1", map[string]any{"request_id": "r1"})

	events := state.findActivity(types.ActivityTypeStatus)
	if len(events) != 1 {
		t.Fatalf("expected 1 status event, got %d", len(events))
	}
	event := events[0]
	if event.Status != types.StatusRunning || event.Title != "Completion request started" {
		t.Errorf("unexpected request event: %+v", event)
	}
	if event.Description != "model=m1" {
		t.Errorf("unexpected description: %q", event.Description)
	}

	projector.OnComplete("m1", 250*time.Millisecond, nil)
	event = state.findActivity(types.ActivityTypeStatus)[0]
	if event.Status != types.StatusSuccess {
		t.Errorf("expected success after completion, got %q", event.Status)
	}
	if !strings.Contains(event.Description, "latency=250ms") {
		t.Errorf("expected latency description, got %q", event.Description)
	}
}

func TestProjectorSingleThinkingEvent(t *testing.T) {
	state := newMemoryState()
	projector := NewProjector(state, "turn-1")
	projector.OnRequest("m1", nil)

	projector.OnReasoning("step one")
	projector.OnReasoning("step one, step two")
	projector.OnReasoning("step one, step two, done")

	events := state.findActivity(types.ActivityTypeThinking)
	if len(events) != 1 {
		t.Fatalf("expected exactly one thinking event, got %d", len(events))
	}
	if events[0].Details != "step one, step two, done" {
		t.Errorf("expected details updated in place, got %q", events[0].Details)
	}
	if events[0].Status != types.StatusRunning {
		t.Errorf("expected running, got %q", events[0].Status)
	}

	projector.OnComplete("m1", time.Millisecond, nil)
	if got := state.findActivity(types.ActivityTypeThinking)[0].Status; got != types.StatusSuccess {
		t.Errorf("expected thinking success on completion, got %q", got)
	}
}

func TestProjectorToolCallEvents(t *testing.T) {
	state := newMemoryState()
	projector := NewProjector(state, "turn-1")
	projector.OnRequest("m1", nil)

	call := &types.ToolCall{ID: "t1", Name: "search_web", Source: types.SourceBrowser, Status: types.StatusRunning}
	projector.OnToolCall(call)

	call.Arguments = `{"q":"x"}`
	projector.OnToolCall(call)

	events := state.findActivity(types.ActivityTypeBrowser)
	if len(events) != 1 {
		t.Fatalf("expected one event per tool-call id, got %d", len(events))
	}
	if events[0].Arguments != `{"q":"x"}` {
		t.Errorf("expected arguments updated in place, got %q", events[0].Arguments)
	}
	if events[0].ToolCallID != "t1" {
		t.Errorf("expected tool call link, got %q", events[0].ToolCallID)
	}

	projector.OnComplete("m1", time.Millisecond, []*types.ToolCall{call})
	event := state.findActivity(types.ActivityTypeBrowser)[0]
	if event.Status != types.StatusSuccess || event.Details != "Completed" {
		t.Errorf("expected success/Completed, got %+v", event)
	}
}

func TestProjectorEmitsArtifactsOnComplete(t *testing.T) {
	state := newMemoryState()
	projector := NewProjector(state, "turn-1")
	projector.OnRequest("m1", nil)

	call := &types.ToolCall{
		ID:        "t1",
		Name:      "write_file",
		Arguments: `{"filename":"report.txt"}`,
		Source:    types.SourceFile,
	}
	projector.OnToolCall(call)
	projector.OnComplete("m1", time.Millisecond, []*types.ToolCall{call})

	files := state.Files()
	if len(files) != 1 {
		t.Fatalf("expected one generated artifact, got %d", len(files))
	}
	if files[0].Name != "report.txt" || files[0].Kind != types.ArtifactGenerated {
		t.Errorf("unexpected artifact: %+v", files[0])
	}
	if files[0].SourceEventID == "" {
		t.Error("expected artifact to reference its activity event")
	}
}

func TestProjectorOnError(t *testing.T) {
	state := newMemoryState()
	projector := NewProjector(state, "turn-1")
	projector.OnRequest("m1", nil)

	projector.OnError("HTTP 500: boom")

	event := state.findActivity(types.ActivityTypeStatus)[0]
	if event.Status != types.StatusError || event.Description != "HTTP 500: boom" {
		t.Errorf("unexpected request event after failure: %+v", event)
	}
}

func TestProjectorHaltStopsProjection(t *testing.T) {
	state := newMemoryState()
	projector := NewProjector(state, "turn-1")
	projector.OnRequest("m1", nil)
	projector.OnReasoning("thinking")

	projector.Halt()
	projector.OnReasoning("more thinking")
	projector.OnToolCall(&types.ToolCall{ID: "t1", Name: "search_web", Source: types.SourceBrowser})
	projector.OnComplete("m1", time.Millisecond, nil)

	thinking := state.findActivity(types.ActivityTypeThinking)
	if thinking[0].Details != "thinking" {
		t.Errorf("expected no updates after halt, got %q", thinking[0].Details)
	}
	if len(state.findActivity(types.ActivityTypeBrowser)) != 0 {
		t.Error("expected no tool events after halt")
	}
	if state.findActivity(types.ActivityTypeStatus)[0].Status != types.StatusRunning {
		t.Error("expected request event untouched after halt")
	}
}
