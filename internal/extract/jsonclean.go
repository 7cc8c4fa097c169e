package extract

import (
	"fmt"
	"strings"

	"lcflow/internal/providers"
	"lcflow/internal/util"
)

// CleanJSON pulls a JSON object out of a free-text completion. Models on
// the file-upload path wrap output in markdown fences or prose, so the
// extraction is tried in order of decreasing trust:
//
//  1. a ```json fenced block
//  2. a bare ``` fenced block that starts with {
//  3. the first balanced {...} span in the text
//
// An HTML error page is reported as a transient service failure so callers
// retry instead of recording a parse error.
func CleanJSON(raw string) (string, error) {
	if providers.IsErrorPage(raw) {
		return "", fmt.Errorf("%w: %s", util.ErrTransientService, firstLine(raw))
	}

	if block, ok := fencedBlock(raw, "```json"); ok {
		return block, nil
	}
	if block, ok := fencedBlock(raw, "```"); ok && strings.HasPrefix(block, "{") {
		return block, nil
	}
	if span, ok := balancedObject(raw); ok {
		return span, nil
	}
	return "", fmt.Errorf("%w: %s", util.ErrNoJSONFound, firstLine(raw))
}

func fencedBlock(raw, fence string) (string, bool) {
	start := strings.Index(raw, fence)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(fence):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject returns the first {...} span with balanced braces,
// ignoring braces inside JSON strings.
func balancedObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
					return raw[start : i+1], true
				}
			}
		}
	}
	return "", false
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
