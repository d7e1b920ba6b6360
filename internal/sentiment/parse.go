package sentiment

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// decodeObject unmarshals a model reply into out. A reply that is not bare
// JSON is cleaned of code fences and surrounding prose, then retried.
func decodeObject(raw string, out any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), out); err == nil {
		return nil
	}

	cleaned := cleanJSON(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return eris.New("sentiment: no JSON object in model response")
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return eris.Wrap(err, "sentiment: failed to parse model response")
	}
	zap.L().Debug("sentiment: repaired model response", zap.Int("raw_len", len(raw)))
	return nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or other wrapping, closing brackets a truncated reply left open.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	end := strings.LastIndex(text, "}")
	if end > start {
		text = text[start : end+1]
	} else {
		text = text[start:]
	}
	return repairTruncatedJSON(strings.TrimSpace(text))
}

// repairTruncatedJSON closes unclosed strings, brackets and braces.
func repairTruncatedJSON(text string) string {
	var stack []byte
	inString, escape := false, false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if escape {
			escape = false
			continue
		}
		if c == '\\' && inString {
			escape = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if len(stack) == 0 && !inString {
		return text
	}

	var b strings.Builder
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
