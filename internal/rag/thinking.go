package rag

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkOpenRe  = regexp.MustCompile(`(?i)<think>`)
	thinkCloseRe = regexp.MustCompile(`(?i)</think>`)
)

// StripThinking removes reasoning traces from model output. Complete
// <think>...</think> blocks are dropped; a stray closing tag drops everything
// before it and an unclosed opening tag drops everything after it.
func StripThinking(s string) string {
	s = thinkBlockRe.ReplaceAllString(s, "")

	if locs := thinkCloseRe.FindAllStringIndex(s, -1); len(locs) > 0 {
		s = s[locs[len(locs)-1][1]:]
	}
	if loc := thinkOpenRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}
