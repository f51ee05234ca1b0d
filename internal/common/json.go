package common

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of model output. Providers often wrap
// the payload in a ```json fence or surround it with prose; this strips both
// and returns the outermost object.
func ExtractJSON(text string) (string, error) {
	s := strings.TrimSpace(text)

	// Strip a markdown code fence if present
	if idx := strings.Index(s, "```"); idx != -1 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end != -1 {
			s = rest[:end]
		} else {
			s = rest
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}

	// Scan for the matching close brace, ignoring braces inside strings
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], nil
				}
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON object in response")
}
