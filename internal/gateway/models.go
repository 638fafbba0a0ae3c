// internal/gateway/models.go
package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Model is a normalized catalog entry.
type Model struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Provider    string     `json:"provider"`
	Status      string     `json:"status"`
	Specs       ModelSpecs `json:"specs"`
	Badges      []string   `json:"badges,omitempty"`
	Description string     `json:"description,omitempty"`
}

type ModelSpecs struct {
	ContextWindow int    `json:"context_window"`
	Quantization  string `json:"quantization"`
	GPUAllocation string `json:"gpu_allocation"`
}

const (
	BadgeVision    = "vision"
	BadgeTools     = "tools"
	BadgeSovereign = "sovereign"
)

// ListModels fetches /models and normalizes the payload. Gateways wrap
// the catalog differently (bare object, models, data, model_list); the
// first candidate that yields mappable entries wins.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	payload, err := c.getJSON(ctx, "/models")
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	return NormalizeModels(payload), nil
}

// NormalizeModels maps a raw catalog payload to Model entries.
func NormalizeModels(payload any) []Model {
	root := asRecord(payload)
	if root == nil {
		return nil
	}

	candidates := []any{root, root["models"], root["data"], root["model_list"]}
	for _, candidate := range candidates {
		items := asArray(candidate)
		if len(items) == 0 {
			continue
		}
		var models []Model
		for _, item := range items {
			if model, ok := mapModel(asRecord(item)); ok {
				models = append(models, model)
			}
		}
		if len(models) > 0 {
			return models
		}
	}
	return nil
}

func mapModel(record map[string]any) (Model, bool) {
	if record == nil {
		record = map[string]any{}
	}
	info := asRecord(record["model_info"])
	if info == nil {
		info = map[string]any{}
	}

	modelID := findFirstString(record, "id", "model_name", "model")
	if modelID == "" {
		modelID = findFirstString(info, "id", "model_name", "model")
	}
	if modelID == "" {
		return Model{}, false
	}

	contextWindow, ok := findFirstNumber(record, "max_input_tokens", "max_tokens", "context_window")
	if !ok {
		contextWindow, _ = findFirstNumber(info, "max_input_tokens", "max_tokens", "context_window")
	}

	provider := findFirstString(record, "litellm_provider", "provider")
	if provider == "" {
		provider = findFirstString(info, "provider")
	}

	status := toStringValue(record["status"])
	if status == "" {
		status = toStringValue(info["status"])
	}

	name := findFirstString(record, "display_name", "name")
	if name == "" {
		name = modelID
	}

	quantization := findFirstString(info, "quantization", "precision")
	if quantization == "" {
		quantization = "unknown"
	}
	gpu := findFirstString(info, "gpu_allocation", "deployment")
	if gpu == "" {
		gpu = "unknown"
	}

	return Model{
		ID:       modelID,
		Name:     name,
		Provider: coerceProvider(provider),
		Status:   coerceStatus(status),
		Specs: ModelSpecs{
			ContextWindow: int(contextWindow),
			Quantization:  quantization,
			GPUAllocation: gpu,
		},
		Badges:      inferBadges(modelID, info),
		Description: findFirstString(record, "description"),
	}, true
}

func coerceProvider(raw string) string {
	switch strings.ToLower(raw) {
	case "vllm", "triton":
		return strings.ToLower(raw)
	default:
		return "custom"
	}
}

func coerceStatus(raw string) string {
	switch strings.ToLower(raw) {
	case "available", "warming", "offline":
		return strings.ToLower(raw)
	default:
		return "available"
	}
}

func inferBadges(modelID string, info map[string]any) []string {
	badges := make(map[string]bool)
	lowered := strings.ToLower(modelID)

	if strings.Contains(lowered, "vision") ||
		strings.Contains(lowered, "vl") ||
		strings.Contains(lowered, "image") ||
		truthy(info["supports_vision"]) {
		badges[BadgeVision] = true
	}
	if strings.Contains(lowered, "tool") ||
		truthy(info["supports_function_calling"]) ||
		truthy(info["supports_parallel_function_calling"]) {
		badges[BadgeTools] = true
	}
	if truthy(info["sovereign"]) ||
		strings.Contains(lowered, "aether") ||
		strings.Contains(lowered, "kimi") {
		badges[BadgeSovereign] = true
	}

	if len(badges) == 0 {
		return nil
	}
	result := make([]string, 0, len(badges))
	for badge := range badges {
		result = append(result, badge)
	}
	sort.Strings(result)
	return result
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != "" && v != "false" && v != "0"
	default:
		return false
	}
}
