package compact

import (
	"fmt"
	"strings"
)

// charsPerGuardToken converts a token limit into a character limit.
const charsPerGuardToken = 4

// tailWindow is how far back EnforceLimits looks for a clean cut point.
const tailWindow = 200

// AddConstraint appends an answer-shape constraint line.
func AddConstraint(text string, nPoints, maxWords int) string {
	line := fmt.Sprintf("Constraints: answer in %d concise points (max %d words).", nPoints, maxWords)
	if strings.TrimSpace(text) == "" {
		return line
	}
	return text + "\n\n" + line
}

// EnforceLimits clips text to the stricter of maxTokens (about 4 runes per
// token) and maxChars. Zero disables a limit. The cut prefers the last
// newline, then the last space, within the final 200 runes.
func EnforceLimits(text string, maxTokens, maxChars int) (string, bool) {
	limit := 0
	if maxChars > 0 {
		limit = maxChars
	}
	if maxTokens > 0 {
		tc := maxTokens * charsPerGuardToken
		if limit == 0 || tc < limit {
			limit = tc
		}
	}

	runes := []rune(text)
	if limit == 0 || len(runes) <= limit {
		return text, false
	}

	clipped := runes[:limit]
	floor := limit - tailWindow
	if i := lastIndex(clipped, '\n'); i >= 0 && i >= floor {
		clipped = clipped[:i]
	} else if i := lastIndex(clipped, ' '); i >= 0 && i >= floor {
		clipped = clipped[:i]
	}
	return string(clipped), true
}

func lastIndex(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

// DefaultStructuredFields are the keys requested by WrapStructured.
var DefaultStructuredFields = []string{"objective", "constraints", "output_format"}

// WrapStructured wraps an instruction in a role/task frame asking for a JSON
// answer with the given keys.
func WrapStructured(instruction string, fields ...string) string {
	if len(fields) == 0 {
		fields = DefaultStructuredFields
	}
	lines := []string{
		"Role: concise and precise assistant.",
		"Task:",
		strings.TrimSpace(instruction),
		"",
		"Answer in JSON with the following keys:",
		"{",
	}
	for i, f := range fields {
		sep := ","
		if i == len(fields)-1 {
			sep = ""
		}
		lines = append(lines, fmt.Sprintf("  %q: \"...\"%s", f, sep))
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}
