package judge

import "encoding/json"

// Decision is the structured result parsed from a reply for the decision
// actions. Pointer booleans distinguish "absent" from "false".
type Decision struct {
	Approved *bool  `json:"approved,omitempty"`
	Allowed  *bool  `json:"allowed,omitempty"`
	Decision string `json:"decision,omitempty"`
	Response string `json:"response,omitempty"`
	NextDate string `json:"nextDate,omitempty"`
}

// ExtractDecision locates the first balanced JSON object embedded in free
// text and parses it. Extraction is best-effort: a miss returns ok=false
// and the caller falls back to the raw text.
func ExtractDecision(reply string) (Decision, bool) {
	raw, ok := firstJSONObject(reply)
	if !ok {
		return Decision{}, false
	}

	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Decision{}, false
	}
	return d, true
}

// firstJSONObject scans for the first balanced {...} span, tracking string
// literals so braces inside them do not count.
func firstJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
