package display

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// EmptyValue marks a null or absent value.
	EmptyValue = "未設定"
	// Enabled and Disabled render boolean and flag values.
	Enabled  = "有効"
	Disabled = "無効"

	dateLayout = "2006年01月02日"
)

var statusLabels = map[string]string{
	"estimating":  "見積中",
	"won":         "受注",
	"lost":        "失注",
	"planning":    "計画中",
	"in_progress": "進行中",
	"on_hold":     "保留",
	"completed":   "完了",
}

var leadingDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// FormatValue renders a raw value and its field name into a stable
// human-readable string. Deterministic; first matching rule wins.
func FormatValue(value any, field string) string {
	if value == nil {
		return EmptyValue
	}

	if b, ok := value.(bool); ok {
		if b {
			return Enabled
		}
		return Disabled
	}

	if isStatusField(field) {
		if s, ok := value.(string); ok {
			if label, ok := statusLabels[s]; ok {
				return label
			}
		}
	}

	if isFlagField(field) {
		if truthy(value) {
			return Enabled
		}
		return Disabled
	}

	switch v := value.(type) {
	case time.Time:
		return v.Format(dateLayout)
	case string:
		if leadingDatePattern.MatchString(v) {
			if t, err := time.Parse("2006-01-02", v[:10]); err == nil {
				return t.Format(dateLayout)
			}
			return v
		}
	}

	if f, ok := asFloat(value); ok {
		return formatNumber(f, field)
	}

	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			parts = append(parts, FormatValue(elem, field))
		}
		return strings.Join(parts, "、")
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	case json.RawMessage:
		var parsed any
		if err := json.Unmarshal(v, &parsed); err != nil {
			return string(v)
		}
		return FormatValue(parsed, field)
	case string:
		if looksStructured(v) {
			var parsed any
			if err := json.Unmarshal([]byte(v), &parsed); err == nil {
				return FormatValue(parsed, field)
			}
		}
		return v
	}

	return fmt.Sprint(value)
}

func isStatusField(field string) bool {
	return field == "status" || strings.HasSuffix(field, "Status")
}

func isFlagField(field string) bool {
	return strings.HasSuffix(field, "Flag")
}

var moneySuffixes = []string{"amount", "price", "cost", "budget"}

func isMoneyField(field string) bool {
	lower := strings.ToLower(field)
	for _, suffix := range moneySuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		if f, ok := asFloat(value); ok {
			return f != 0
		}
	}
	return false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func formatNumber(f float64, field string) string {
	var grouped string
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		grouped = humanize.Comma(int64(f))
	} else {
		grouped = humanize.Commaf(f)
	}
	if isMoneyField(field) {
		return "¥" + grouped
	}
	return grouped
}

func looksStructured(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{")
}
