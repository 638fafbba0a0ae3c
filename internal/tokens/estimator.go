// internal/tokens/estimator.go

// Package tokens estimates context-window consumption. Counts are
// approximations for budgeting and display, not billing.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/aetherchat/internal/types"
)

// maxOutputReserve caps the share of the window held back for the
// model's response.
const maxOutputReserve = 1024

// Estimator counts tokens with a model tokenizer when one is available,
// falling back to a chars/4 heuristic otherwise.
type Estimator struct {
	tokenizer *tiktoken.Tiktoken
}

// New creates an estimator for the given model, falling back to
// cl100k_base for unknown models.
func New(model string) (*Estimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Estimator{tokenizer: enc}, nil
}

// NewApprox creates an estimator that only uses the chars/4 heuristic.
// Useful when tokenizer data cannot be loaded.
func NewApprox() *Estimator {
	return &Estimator{}
}

// Count returns the token count for a string.
func (e *Estimator) Count(text string) int {
	if e.tokenizer == nil {
		return Approx(text)
	}
	return len(e.tokenizer.Encode(text, nil, nil))
}

// Approx estimates tokens as ceil(len/4).
func Approx(text string) int {
	return (len(text) + 3) / 4
}

// Breakdown partitions a context window for display: system prompt,
// conversation history, pending input, and the slice reserved for the
// model's response.
type Breakdown struct {
	System  int `json:"system"`
	History int `json:"history"`
	Input   int `json:"input"`
	Reserve int `json:"reserve"`
	Window  int `json:"window"`
}

// Used returns the input-side consumption, excluding the reserve.
func (b Breakdown) Used() int {
	return b.System + b.History + b.Input
}

// Remaining returns the window slack after usage and reserve. Never
// negative.
func (b Breakdown) Remaining() int {
	remaining := b.Window - b.Used() - b.Reserve
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Breakdown measures one prospective request against a context window.
// The output reserve is 30% of the window, capped at maxOutputReserve.
func (e *Estimator) Breakdown(system string, history []*types.Message, input string, window int) Breakdown {
	var historyTokens int
	for _, msg := range history {
		historyTokens += e.Count(msg.Content)
	}

	reserve := window * 3 / 10
	if reserve > maxOutputReserve {
		reserve = maxOutputReserve
	}

	return Breakdown{
		System:  e.Count(system),
		History: historyTokens,
		Input:   e.Count(input),
		Reserve: reserve,
		Window:  window,
	}
}
