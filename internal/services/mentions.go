package services

import "strings"

// ParseMentions extracts @handle candidates from an update body. A mention
// starts at an '@' at the beginning of the body or after whitespace, and the
// handle runs until whitespace, ',', ';' or end of string. Handles may
// themselves contain '@' (emails). Candidates are returned in order of first
// appearance, deduplicated case-insensitively; the body is never modified.
func ParseMentions(body string) []string {
	var handles []string
	seen := map[string]bool{}

	for i := 0; i < len(body); i++ {
		if body[i] != '@' {
			continue
		}
		if i > 0 && !isMentionBoundary(body[i-1]) {
			continue
		}

		j := i + 1
		for j < len(body) && !isMentionTerminator(body[j]) {
			j++
		}

		handle := body[i+1 : j]
		if handle != "" {
			key := strings.ToLower(handle)
			if !seen[key] {
				seen[key] = true
				handles = append(handles, handle)
			}
		}
		i = j - 1
	}

	return handles
}

func isMentionBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isMentionTerminator(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == ',' || b == ';'
}
