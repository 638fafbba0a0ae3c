// internal/gateway/normalize.go
package gateway

import (
	"fmt"
	"strconv"
	"strings"
)

// Tolerant readers for the loosely-shaped JSON LiteLLM-style gateways
// return. Fields move between deployments, so every lookup works over
// generic values with fallback key lists.

func asRecord(value any) map[string]any {
	record, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return record
}

func asArray(value any) []any {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	return items
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func toStringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func findFirstNumber(record map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		value, ok := record[key]
		if !ok {
			continue
		}
		if n, ok := toNumber(value); ok {
			return n, true
		}
	}
	return 0, false
}

func findFirstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := record[key]
		if !ok {
			continue
		}
		if s := toStringValue(value); s != "" {
			return s
		}
	}
	return ""
}

// sumNamedNumbers walks a payload of arbitrary shape and sums every
// numeric value stored under one of the given key names, at any depth.
func sumNamedNumbers(node any, keys map[string]bool) float64 {
	switch v := node.(type) {
	case []any:
		var total float64
		for _, item := range v {
			total += sumNamedNumbers(item, keys)
		}
		return total
	case map[string]any:
		var total float64
		for key, value := range v {
			if keys[key] {
				if n, ok := toNumber(value); ok {
					total += n
				}
			}
			switch value.(type) {
			case map[string]any, []any:
				total += sumNamedNumbers(value, keys)
			}
		}
		return total
	default:
		return 0
	}
}

func keySet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[key] = true
	}
	return set
}
