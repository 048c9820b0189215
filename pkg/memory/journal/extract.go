package journal

import "strings"

var requiredKeys = []string{
	"summary", "emotions", "decisions", "topics", "importance", "relationshipDelta",
}

// ExtractJSON finds the most plausible JSON object span inside model
// output. Among balanced brace-delimited candidates it prefers the one
// containing the most required keys, tie-broken by length. When no
// balanced candidate exists it falls back to the widest first-brace to
// last-brace span; text without braces yields no span at all.
func ExtractJSON(s string) (string, bool) {
	candidates := balancedSpans(s)
	if len(candidates) == 0 {
		first := strings.Index(s, "{")
		last := strings.LastIndex(s, "}")
		if first >= 0 && last > first {
			return s[first : last+1], true
		}
		return "", false
	}

	best := candidates[0]
	bestScore := keyScore(best)
	for _, c := range candidates[1:] {
		score := keyScore(c)
		if score > bestScore || (score == bestScore && len(c) > len(best)) {
			best, bestScore = c, score
		}
	}
	return best, true
}

func keyScore(span string) int {
	score := 0
	for _, key := range requiredKeys {
		if strings.Contains(span, `"`+key+`"`) {
			score++
		}
	}
	return score
}

// balancedSpans returns every brace-balanced substring, including
// nested objects, honoring string literals and escapes.
func balancedSpans(s string) []string {
	var spans []string
	var stack []int
	inString := false
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, i)
			}
		case '}':
			if !inString && len(stack) > 0 {
				start := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				spans = append(spans, s[start:i+1])
			}
		}
	}
	return spans
}
