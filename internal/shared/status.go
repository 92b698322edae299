package shared

import "fmt"

// Badge is a display tuple for closed-enum table columns.
type Badge struct {
	Text  string `json:"text"`
	Color string `json:"color"`
}

// StatusMapping maps the string form of a raw value to its badge.
// Numeric and boolean values resolve through the same string key, so 1,
// "1" and int64(1) are equivalent lookups.
type StatusMapping map[string]Badge

// FallbackBadge is returned when a value has no mapping entry.
var FallbackBadge = Badge{Text: "-", Color: "gray"}

// ResolveStatus looks up the badge for value, coercing it to its string
// form first. It never fails; unmapped values yield fallback.
func ResolveStatus(mapping StatusMapping, value any, fallback ...Badge) Badge {
	fb := FallbackBadge
	if len(fallback) > 0 {
		fb = fallback[0]
	}
	if mapping == nil {
		return fb
	}
	key := coerceKey(value)
	if badge, ok := mapping[key]; ok {
		return badge
	}
	return fb
}

func coerceKey(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		// JSON numbers decode as float64; render integers without a
		// trailing fraction so they match "1" style keys.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
