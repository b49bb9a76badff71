package quality

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotObject is returned when a batch element is not a JSON object.
	ErrNotObject = errors.New("news item is not a JSON object")

	// ErrFieldType is returned when a text field holds a non-string value.
	ErrFieldType = errors.New("news item field has unexpected type")
)

// summaryAliases lists the accepted names of the AI summary field; the first
// non-empty one wins.
var summaryAliases = []string{"ai_summary", "aiSummary"}

// ParseItem converts a decoded JSON object into a NewsItem. Missing text
// fields default to "", and cross_source_count falls back to 1 whenever it
// is absent or cannot be read as a positive integer.
func ParseItem(raw map[string]any) (NewsItem, error) {
	title, err := textField(raw, "title")
	if err != nil {
		return NewsItem{}, err
	}
	content, err := textField(raw, "content")
	if err != nil {
		return NewsItem{}, err
	}

	var summary string
	for _, key := range summaryAliases {
		if summary, err = textField(raw, key); err != nil {
			return NewsItem{}, err
		}
		if summary != "" {
			break
		}
	}

	return NewsItem{
		ID:               raw["id"],
		Title:            title,
		Summary:          summary,
		Content:          content,
		CrossSourceCount: crossSourceCount(raw["cross_source_count"]),
	}, nil
}

func textField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || isEmptyValue(v) {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrFieldType, key, v)
	}
	return s, nil
}

// isEmptyValue reports JSON values that count as "not provided": null,
// false, zero, and empty strings, arrays and objects.
func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// maxCrossSources caps cross_source_count. Any count past it earns the
// same capped bonus, and the cap keeps the bonus arithmetic from overflowing.
const maxCrossSources = 1 << 20

func crossSourceCount(v any) int {
	n, ok := toInt(v)
	if !ok || n < 1 {
		return 1
	}
	return min(n, maxCrossSources)
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, ok := parseInt(t.String()); ok {
			return n, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(t)
	case int:
		return t, true
	case string:
		return parseInt(strings.TrimSpace(t))
	case bool:
		if t {
			return 1, true
		}
	}
	return 0, false
}

// parseInt reads a base-10 integer. Out-of-range values saturate at the
// int64 bounds and are clamped by the caller.
func parseInt(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(max(-maxCrossSources, min(n, maxCrossSources))), true
}

// floatToInt truncates toward zero like int(). Huge magnitudes are clamped
// rather than rejected.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(max(-maxCrossSources, min(f, maxCrossSources)))
	return int(f), true
}
