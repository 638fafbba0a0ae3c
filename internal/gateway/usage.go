// internal/gateway/usage.go
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// UsageSnapshot is the normalized control-plane usage summary for one
// user/app window.
type UsageSnapshot struct {
	PromptTokens     float64   `json:"prompt_tokens"`
	CompletionTokens float64   `json:"completion_tokens"`
	TotalTokens      float64   `json:"total_tokens"`
	Spend            float64   `json:"spend"`
	Requests         float64   `json:"requests"`
	WindowStart      string    `json:"window_start,omitempty"`
	WindowEnd        string    `json:"window_end,omitempty"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// UserInfo is the normalized /user/info record.
type UserInfo struct {
	UserID    string         `json:"user_id"`
	Role      string         `json:"role,omitempty"`
	Spend     float64        `json:"spend"`
	MaxBudget float64        `json:"max_budget"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// UsageQuery selects the usage window. LookbackDays defaults to 7 and is
// clamped to at least 1.
type UsageQuery struct {
	UserID       string
	AppID        string
	LookbackDays int
}

// FetchUsage loads and normalizes /usage for the query window.
func (c *Client) FetchUsage(ctx context.Context, query UsageQuery) (*UsageSnapshot, error) {
	lookback := query.LookbackDays
	if lookback < 1 {
		lookback = 7
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -lookback)

	params := url.Values{}
	params.Set("user_id", query.UserID)
	params.Set("app_id", query.AppID)
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))

	payload, err := c.getJSON(ctx, "/usage?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("load usage: %w", err)
	}
	return ParseUsage(payload), nil
}

// ParseUsage normalizes a usage payload of arbitrary shape by summing
// named token/spend/request counters at any depth. The reported total
// falls back to prompt+completion when the payload carries none.
func ParseUsage(payload any) *UsageSnapshot {
	raw := asRecord(payload)
	if raw == nil {
		raw = map[string]any{}
	}

	prompt := sumNamedNumbers(raw, keySet("prompt_tokens", "input_tokens"))
	completion := sumNamedNumbers(raw, keySet("completion_tokens", "output_tokens"))
	total := sumNamedNumbers(raw, keySet("total_tokens", "tokens"))
	if total <= 0 {
		total = prompt + completion
	}

	return &UsageSnapshot{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      total,
		Spend:            sumNamedNumbers(raw, keySet("spend", "total_spend", "cost", "total_cost")),
		Requests:         sumNamedNumbers(raw, keySet("requests", "request_count", "num_requests")),
		WindowStart:      findFirstString(raw, "start_date", "start_time"),
		WindowEnd:        findFirstString(raw, "end_date", "end_time"),
		FetchedAt:        time.Now(),
	}
}

// FetchUserInfo loads and normalizes /user/info for the given user.
func (c *Client) FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	params := url.Values{}
	params.Set("user_id", userID)

	payload, err := c.getJSON(ctx, "/user/info?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("load user info: %w", err)
	}
	return ParseUserInfo(payload, userID), nil
}

// ParseUserInfo extracts the user record, tolerating payloads that nest
// it under user or user_info or inline it at the root.
func ParseUserInfo(payload any, fallbackUserID string) *UserInfo {
	raw := asRecord(payload)
	if raw == nil {
		raw = map[string]any{}
	}

	candidate := asRecord(raw["user"])
	if candidate == nil {
		candidate = asRecord(raw["user_info"])
	}
	if candidate == nil {
		candidate = raw
	}

	userID := findFirstString(candidate, "user_id", "user", "id", "sub")
	if userID == "" {
		userID = fallbackUserID
	}

	spend, _ := findFirstNumber(candidate, "spend", "total_spend", "current_spend")
	budget, _ := findFirstNumber(candidate, "max_budget", "budget", "soft_budget")

	return &UserInfo{
		UserID:    userID,
		Role:      findFirstString(candidate, "role"),
		Spend:     spend,
		MaxBudget: budget,
		Metadata:  asRecord(candidate["metadata"]),
	}
}

// UsersCount returns the number of registered users, checking the array
// wrappers gateways use for /users.
func (c *Client) UsersCount(ctx context.Context) (int, error) {
	payload, err := c.getJSON(ctx, "/users")
	if err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}

	root := asRecord(payload)
	if root == nil {
		return 0, nil
	}
	for _, candidate := range []any{root["users"], root["data"], payload} {
		if items := asArray(candidate); len(items) > 0 {
			return len(items), nil
		}
	}
	return 0, nil
}
