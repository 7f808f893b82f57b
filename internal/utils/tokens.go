package utils

import "strings"

// Token estimates for prompt digests. The heuristic is 1 token ~= 4 characters.

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	// at least 1 token for any non-empty text
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateToTokenLimit cuts text to roughly fit within limit tokens, backing
// up to the last full line when one exists.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	charLimit := limit * 4
	if charLimit >= len(runes) {
		return text
	}
	cut := string(runes[:charLimit])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i+1]
	}
	return cut
}

// TokenBreakdown splits a digest on its "[SECTION]" header lines and counts
// tokens per section. Text before the first header is reported under "".
func TokenBreakdown(text string) map[string]int {
	out := map[string]int{}
	name := ""
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 || name != "" {
			out[name] += CountTokens(buf.String())
		}
		buf.Reset()
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 2 && trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']' {
			flush()
			name = trimmed[1 : len(trimmed)-1]
			continue
		}
		buf.WriteString(line)
	}
	flush()
	return out
}
