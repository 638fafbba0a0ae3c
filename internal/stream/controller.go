// internal/stream/controller.go
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/user/aetherchat/internal/gateway"
	"github.com/user/aetherchat/internal/types"
)

// ErrNoModel is the local precondition failure: submitting with no target
// model selected. Reported before any network activity.
var ErrNoModel = errors.New("no model selected")

// Streamer issues a streaming completion request and returns the raw
// event-stream body.
type Streamer interface {
	StreamChat(ctx context.Context, req *gateway.ChatRequest) (io.ReadCloser, error)
}

// Enricher optionally contributes a context block for a user message.
// ok=false means the request proceeds without enrichment.
type Enricher interface {
	Context(ctx context.Context, query string) (block string, ok bool)
}

// Options configures a Controller.
type Options struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	User           string
	AppID          string
	ConversationID types.ConversationID
	Enricher       Enricher
	OnError        func(error)
	OnComplete     func(*types.Message)
}

// Controller orchestrates one conversation's turns: it issues the
// request, drives the decode/interpret/accumulate loop, and finalizes or
// fails the turn. Only one loop may be active at a time; rejecting
// concurrent submits is the caller's job.
type Controller struct {
	streamer Streamer
	state    types.StatePort
	opts     Options

	mu        sync.Mutex
	cancel    context.CancelFunc
	projector *Projector
	active    atomic.Bool
}

// NewController creates a controller writing to the given state port.
func NewController(streamer Streamer, state types.StatePort, opts Options) *Controller {
	return &Controller{
		streamer: streamer,
		state:    state,
		opts:     opts,
	}
}

// Streaming reports whether a turn is currently active.
func (c *Controller) Streaming() bool {
	return c.active.Load()
}

// Stop aborts the in-flight turn. Partial output already written stays in
// place; the timeline gets a dedicated info event rather than an error.
// Safe to call when nothing is streaming.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	projector := c.projector
	c.cancel = nil
	c.projector = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if projector != nil {
		projector.Halt()
	}

	c.state.AppendActivity(&types.ActivityEvent{
		ID:          types.NewEventID(),
		Type:        types.ActivityTypeStatus,
		Source:      types.SourceSystem,
		Status:      types.StatusInfo,
		Title:       "Generation stopped",
		Description: "Stream aborted by user",
		At:          time.Now(),
	})
}

// SendMessage runs one full turn synchronously: appends the user message
// and an assistant placeholder, streams the completion into the
// placeholder, and finalizes it with metadata. Callers wanting
// fire-and-forget semantics run it in a goroutine.
func (c *Controller) SendMessage(ctx context.Context, content string) {
	if c.opts.Model == "" {
		c.reportError(ErrNoModel)
		return
	}

	c.active.Store(true)
	defer c.active.Store(false)

	startedAt := time.Now()
	requestID := uuid.New().String()

	// Snapshot history before appending so the request carries exactly
	// the prior conversation plus the new user message.
	history := c.state.Messages()

	c.state.AppendMessage(&types.Message{
		ID:        types.NewTurnID(),
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now(),
	})

	turnID := types.NewTurnID()
	c.state.AppendMessage(&types.Message{
		ID:        turnID,
		Role:      "assistant",
		Content:   "",
		CreatedAt: time.Now(),
	})

	acc := NewAccumulator(turnID)
	projector := NewProjector(c.state, turnID)
	projector.OnRequest(c.opts.Model, map[string]any{
		"request_id": requestID,
		"user":       c.opts.User,
		"app_id":     c.opts.AppID,
		"session_id": string(c.opts.ConversationID),
	})

	apiMessages := make([]gateway.ChatMessage, 0, len(history)+2)
	for _, msg := range history {
		apiMessages = append(apiMessages, gateway.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	apiMessages = append(apiMessages, gateway.ChatMessage{Role: "user", Content: content})

	if c.opts.Enricher != nil {
		if block, ok := c.opts.Enricher.Context(ctx, content); ok {
			systemMsg := gateway.ChatMessage{
				Role:    "system",
				Content: fmt.Sprintf("Search results for %q:\n%s\n\nUse the above search results if relevant.", content, block),
			}
			apiMessages = append([]gateway.ChatMessage{systemMsg}, apiMessages...)
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.projector = projector
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.projector = nil
		c.mu.Unlock()
	}()

	req := &gateway.ChatRequest{
		Model:     c.opts.Model,
		Messages:  apiMessages,
		MaxTokens: c.opts.MaxTokens,
		Stream:    true,
		User:      c.opts.User,
		Metadata: map[string]string{
			"app_id":     c.opts.AppID,
			"session_id": string(c.opts.ConversationID),
		},
	}
	if c.opts.Temperature != 0 {
		temp := c.opts.Temperature
		req.Temperature = &temp
	}

	body, err := c.streamer.StreamChat(streamCtx, req)
	if err != nil {
		c.fail(streamCtx, projector, acc, turnID, err)
		return
	}
	defer body.Close()

	decoder := NewFrameDecoder(body)
	for {
		payload, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.fail(streamCtx, projector, acc, turnID, err)
			return
		}

		event, err := ParseEvent(payload)
		if err != nil {
			// One bad frame never kills the turn.
			slog.Warn("discarding malformed stream frame", "error", err)
			continue
		}

		if event.Content != "" {
			full := acc.AppendText(event.Content)
			c.state.UpdateMessage(turnID, func(msg *types.Message) {
				msg.Content = full
			})
		}
		if event.Reasoning != "" {
			projector.OnReasoning(acc.AppendReasoning(event.Reasoning))
		}
		for _, frag := range event.ToolCalls {
			projector.OnToolCall(acc.ApplyToolFragment(frag))
		}
		if event.FinishReason != "" {
			acc.RecordFinish(event.FinishReason)
		}
		if event.Usage != nil {
			acc.RecordUsage(*event.Usage)
		}
	}

	if streamCtx.Err() != nil {
		// User-initiated stop. Partial output is retained, the stop
		// event was already emitted, no finalization metadata.
		slog.Info("stream aborted", "turn_id", string(turnID))
		return
	}

	c.finalize(projector, acc, turnID, startedAt)
}

// finalize assembles the message metadata from accumulator state and
// writes the final message once, replacing the placeholder content-only
// updates, then bumps the running usage counter.
func (c *Controller) finalize(projector *Projector, acc *Accumulator, turnID types.TurnID, startedAt time.Time) {
	completedAt := time.Now()
	latency := completedAt.Sub(startedAt)

	calls := acc.ToolCalls()
	for _, call := range calls {
		call.Status = types.StatusSuccess
		call.CompletedAt = &completedAt
	}

	projector.OnComplete(c.opts.Model, latency, calls)

	usage := acc.Usage()
	tokens := &types.TokenCounts{}
	if usage != nil {
		tokens.Input = usage.PromptTokens
		tokens.Output = usage.CompletionTokens
	}

	metadata := &types.MessageMetadata{
		Model:        c.opts.Model,
		Tokens:       tokens,
		LatencyMS:    latency.Milliseconds(),
		FinishReason: acc.FinishReason(),
		Timestamp:    completedAt,
		Thinking:     acc.Reasoning(),
		RawUsage:     usage,
	}
	if len(calls) > 0 {
		metadata.ToolCalls = calls
	}

	var final *types.Message
	c.state.UpdateMessage(turnID, func(msg *types.Message) {
		msg.Content = acc.Text()
		msg.Metadata = metadata
		copied := *msg
		final = &copied
	})

	turnUsage := types.Usage{}
	if usage != nil {
		turnUsage = *usage
	}
	c.state.AddUsage(turnUsage)

	if c.opts.OnComplete != nil && final != nil {
		c.opts.OnComplete(final)
	}
}

// fail handles transport and decode failures. Cancellation is expected
// control flow and produces neither inline error text nor an error event.
func (c *Controller) fail(ctx context.Context, projector *Projector, acc *Accumulator, turnID types.TurnID, err error) {
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		slog.Info("stream aborted", "turn_id", string(turnID))
		return
	}

	msg := err.Error()
	slog.Error("stream failed", "turn_id", string(turnID), "error", err)
	c.reportError(err)

	c.state.UpdateMessage(turnID, func(message *types.Message) {
		message.Content = fmt.Sprintf("%s\n\n[Error: %s]", acc.Text(), msg)
	})
	projector.OnError(msg)
}

func (c *Controller) reportError(err error) {
	if c.opts.OnError != nil {
		c.opts.OnError(err)
	}
}
