// internal/chat/service.go

// Package chat orchestrates conversation turns. A Service owns one
// conversation's live state and admits at most one streaming turn at a
// time; concurrent submits are rejected with ErrBusy.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/aetherchat/internal/state"
	"github.com/user/aetherchat/internal/stream"
	"github.com/user/aetherchat/internal/tokens"
	"github.com/user/aetherchat/internal/types"
)

// ErrBusy is returned when a turn is submitted while another is streaming.
var ErrBusy = errors.New("a response is already being generated")

const defaultHistoryLimit = 100

// Options configures a Service.
type Options struct {
	Model         string
	Temperature   float32
	MaxTokens     int
	ContextWindow int
	User          string
	AppID         string
	HistoryLimit  int
	Enricher      stream.Enricher
}

// Service runs turns for a single conversation.
type Service struct {
	streamer       stream.Streamer
	conversation   *state.Conversation
	transcripts    types.TranscriptStore
	files          types.FileStore
	index          types.ConversationStore
	conversationID types.ConversationID
	opts           Options
	estimator      *tokens.Estimator

	slot *semaphore.Weighted

	mu         sync.Mutex
	controller *stream.Controller
}

// NewService creates a Service for the given conversation.
func NewService(
	streamer stream.Streamer,
	conversation *state.Conversation,
	transcripts types.TranscriptStore,
	files types.FileStore,
	index types.ConversationStore,
	conversationID types.ConversationID,
	opts Options,
) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	estimator, err := tokens.New(opts.Model)
	if err != nil {
		slog.Warn("tokenizer unavailable, using approximation", "model", opts.Model, "error", err)
		estimator = tokens.NewApprox()
	}
	return &Service{
		streamer:       streamer,
		conversation:   conversation,
		transcripts:    transcripts,
		files:          files,
		index:          index,
		conversationID: conversationID,
		opts:           opts,
		estimator:      estimator,
		slot:           semaphore.NewWeighted(1),
	}
}

// LoadHistory seeds the live state with the persisted transcript tail.
func (s *Service) LoadHistory(ctx context.Context) error {
	msgs, err := s.transcripts.Tail(ctx, s.conversationID, s.opts.HistoryLimit)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	for _, msg := range msgs {
		s.conversation.AppendMessage(msg)
	}
	return nil
}

// Submit starts a streaming turn for the user message. It returns ErrBusy
// if a turn is already in flight; otherwise it returns immediately and the
// turn proceeds in the background.
func (s *Service) Submit(ctx context.Context, content string) error {
	if content == "" {
		return errors.New("message content is required")
	}
	if !s.slot.TryAcquire(1) {
		return ErrBusy
	}

	controller := stream.NewController(s.streamer, s.statePort(), stream.Options{
		Model:          s.opts.Model,
		Temperature:    s.opts.Temperature,
		MaxTokens:      s.opts.MaxTokens,
		User:           s.opts.User,
		AppID:          s.opts.AppID,
		ConversationID: s.conversationID,
		Enricher:       s.opts.Enricher,
		OnComplete:     s.persistTurn,
		OnError: func(err error) {
			slog.Error("turn failed", "conversation_id", string(s.conversationID), "error", err)
		},
	})

	s.mu.Lock()
	s.controller = controller
	s.mu.Unlock()

	go func() {
		defer s.slot.Release(1)
		s.appendUserTranscript(content)
		controller.SendMessage(context.WithoutCancel(ctx), content)
		s.touchIndex()
	}()
	return nil
}

// Stop aborts the in-flight turn, if any.
func (s *Service) Stop() {
	s.mu.Lock()
	controller := s.controller
	s.mu.Unlock()
	if controller != nil {
		controller.Stop()
	}
}

// Streaming reports whether a turn is currently in flight.
func (s *Service) Streaming() bool {
	s.mu.Lock()
	controller := s.controller
	s.mu.Unlock()
	return controller != nil && controller.Streaming()
}

// Messages returns the live message list.
func (s *Service) Messages() []*types.Message {
	return s.conversation.Messages()
}

// Activity returns the live activity timeline.
func (s *Service) Activity() []*types.ActivityEvent {
	return s.conversation.Activity()
}

// GeneratedFiles returns files produced during this conversation.
func (s *Service) GeneratedFiles() []*types.FileArtifact {
	return s.conversation.GeneratedFiles()
}

// UsageTotals returns accumulated token usage for this conversation.
func (s *Service) UsageTotals() types.UsageTotals {
	return s.conversation.UsageTotals()
}

// TokenBreakdown estimates how the context window is split between
// history, the given draft input, and the output reserve.
func (s *Service) TokenBreakdown(input string) tokens.Breakdown {
	window := s.opts.ContextWindow
	if window <= 0 {
		window = 128000
	}
	return s.estimator.Breakdown("", s.conversation.Messages(), input, window)
}

func (s *Service) appendUserTranscript(content string) {
	msg := &types.Message{
		ID:        types.NewTurnID(),
		Role:      "user",
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.transcripts.Append(context.Background(), s.conversationID, msg); err != nil {
		slog.Warn("persist user message failed", "conversation_id", string(s.conversationID), "error", err)
	}
}

func (s *Service) persistTurn(msg *types.Message) {
	ctx := context.Background()
	if err := s.transcripts.Append(ctx, s.conversationID, msg); err != nil {
		slog.Warn("persist assistant message failed", "conversation_id", string(s.conversationID), "error", err)
	}
}

func (s *Service) touchIndex() {
	ctx := context.Background()
	row, err := s.index.Get(ctx, s.conversationID)
	if err != nil {
		slog.Warn("load conversation index failed", "conversation_id", string(s.conversationID), "error", err)
		return
	}
	count, err := s.transcripts.Count(ctx, s.conversationID)
	if err == nil {
		row.MessageCount = count
	}
	msgs := s.conversation.Messages()
	if len(msgs) > 0 {
		row.LastTurnID = msgs[len(msgs)-1].ID
	}
	if err := s.index.Update(ctx, row); err != nil {
		slog.Warn("update conversation index failed", "conversation_id", string(s.conversationID), "error", err)
	}
}

// statePort wraps the live conversation so generated files are also
// persisted to the file store as they appear.
func (s *Service) statePort() types.StatePort {
	return &persistentState{Conversation: s.conversation, service: s}
}

type persistentState struct {
	*state.Conversation
	service *Service
}

func (p *persistentState) AddGeneratedFile(artifact *types.FileArtifact) {
	p.Conversation.AddGeneratedFile(artifact)
	if p.service.files == nil {
		return
	}
	if err := p.service.files.Put(context.Background(), p.service.conversationID, artifact); err != nil {
		slog.Warn("persist generated file failed", "artifact_id", string(artifact.ID), "error", err)
	}
}
