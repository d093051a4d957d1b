package tagging

import "strings"

// CleanModelJSON strips the markdown wrappers models add despite being told
// not to: ```/```json fences, and any stray text around the outermost JSON
// object or array.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			// Single-line weirdness; just return as-is.
			return s
		}
		s = strings.TrimSpace(s)
	}

	// Remove trailing ``` if present.
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: keep only the outermost object/array when junk remains
	// around it.
	if start := strings.IndexAny(s, "{["); start != -1 {
		closing := byte('}')
		if s[start] == '[' {
			closing = ']'
		}
		if end := strings.LastIndexByte(s, closing); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
