package journal

import (
	"regexp"
	"strings"
)

// Models wrap their JSON output in a remarkable variety of garbage:
// reasoning tags, markdown fences, byte-order marks, trailing commas,
// bare array tokens. Each normalization below is a standalone pure
// transform so individual rules stay auditable; Repair composes them in
// a fixed order.

var (
	thinkingRe       = regexp.MustCompile(`(?is)<think(?:ing)?>.*?</think(?:ing)?>`)
	fenceRe          = regexp.MustCompile("```[a-zA-Z]*")
	signedNumberRe   = regexp.MustCompile(`([\[:,\s])\+(\d)`)
	duplicateCommaRe = regexp.MustCompile(`,\s*,`)
	trailingCommaRe  = regexp.MustCompile(`,(\s*[}\]])`)
	embeddedWSRe     = regexp.MustCompile(`[\r\n\t]+`)
	bareTokenRe      = regexp.MustCompile(`([\[,]\s*)([A-Za-z_][A-Za-z0-9_' -]*[A-Za-z0-9_])(\s*[,\]])`)

	invisibleReplacer = strings.NewReplacer(
		"\uFEFF", "",
		"\u200B", "",
		"\u200C", "",
		"\u200D", "",
	)
)

// StripThinkingBlocks removes <think>/<thinking> reasoning spans.
func StripThinkingBlocks(s string) string {
	return thinkingRe.ReplaceAllString(s, "")
}

// StripCodeFences removes markdown fence markers, including language
// hints like "```json".
func StripCodeFences(s string) string {
	return fenceRe.ReplaceAllString(s, "")
}

// StripInvisible removes the BOM and zero-width characters that some
// providers prepend to their output.
func StripInvisible(s string) string {
	return invisibleReplacer.Replace(s)
}

// UnsignNumbers rewrites explicitly-signed positives (+0.3) to the
// unsigned form JSON requires.
func UnsignNumbers(s string) string {
	return signedNumberRe.ReplaceAllString(s, "${1}${2}")
}

// CollapseDuplicateCommas reduces runs of commas to a single comma.
func CollapseDuplicateCommas(s string) string {
	for {
		out := duplicateCommaRe.ReplaceAllString(s, ",")
		if out == s {
			return s
		}
		s = out
	}
}

// RemoveTrailingCommas drops commas that directly precede a closing
// brace or bracket.
func RemoveTrailingCommas(s string) string {
	return trailingCommaRe.ReplaceAllString(s, "$1")
}

// FlattenWhitespace replaces embedded newlines and tabs with spaces so
// the span parses as a single line.
func FlattenWhitespace(s string) string {
	return embeddedWSRe.ReplaceAllString(s, " ")
}

// QuoteBareArrayTokens wraps unquoted word tokens inside arrays in
// double quotes, leaving JSON literals alone.
func QuoteBareArrayTokens(s string) string {
	for {
		out := bareTokenRe.ReplaceAllStringFunc(s, func(m string) string {
			sub := bareTokenRe.FindStringSubmatch(m)
			token := sub[2]
			switch token {
			case "true", "false", "null":
				return m
			}
			return sub[1] + `"` + token + `"` + sub[3]
		})
		if out == s {
			return s
		}
		s = out
	}
}

// Repair applies the full normalization sequence to an extracted JSON
// span. It never guarantees valid JSON, only a better chance of it.
func Repair(s string) string {
	s = StripInvisible(s)
	s = FlattenWhitespace(s)
	s = UnsignNumbers(s)
	s = CollapseDuplicateCommas(s)
	s = RemoveTrailingCommas(s)
	s = QuoteBareArrayTokens(s)
	return s
}
