package llm

import "strings"

// ExtractJSON pulls the outermost JSON value delimited by open and close out
// of model output that may carry markdown fences or surrounding prose. The
// text is returned trimmed and otherwise untouched when no delimiters are found.
func ExtractJSON(text string, open, close byte) string {
	text = strings.TrimSpace(text)

	if rest, ok := strings.CutPrefix(text, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		if idx := strings.LastIndex(rest, "```"); idx >= 0 {
			rest = rest[:idx]
		}
		text = strings.TrimSpace(rest)
	}

	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
