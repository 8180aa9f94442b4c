package ai

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/talentbridge/diploma-verifier/internal/verification"
)

// ParseExtraction turns raw model output into an extraction record. It never
// fails: markdown fences are stripped, a bare JSON object is fished out of
// surrounding prose when direct parsing fails, and anything still
// unparseable yields the zero-value extraction so the pipeline degrades to
// "nothing extracted" instead of aborting.
func ParseExtraction(raw string) *verification.Extraction {
	cleaned := stripFences(raw)

	data, ok := unmarshalObject(cleaned)
	if !ok {
		data, ok = unmarshalObject(firstJSONObject(raw))
	}
	if !ok {
		return &verification.Extraction{}
	}

	return &verification.Extraction{
		HolderName:        coerceString(data["name"]),
		Date:              coerceString(data["date"]),
		FieldOfStudy:      coerceString(data["field_of_study"]),
		Institution:       coerceString(data["institution"]),
		HasMinfopStamp:    coerceBool(data["has_minfop_stamp"]),
		HasApostilleStamp: coerceBool(data["has_apostille_stamp"]),
		DiplomaType:       coerceString(data["diploma_type"]),
		Confidence:        clampConfidence(coerceFloat(data["confidence"])),
	}
}

func unmarshalObject(raw string) (map[string]any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, false
	}

	return data, true
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// firstJSONObject extracts the first balanced {...} substring, ignoring
// braces inside string literals. Returns "" when no balanced object exists.
func firstJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}

	return ""
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	default:
		return ""
	}
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func clampConfidence(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
