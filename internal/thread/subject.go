package thread

import (
	"strings"
	"unicode"
)

// replyPrefixes are matched case-insensitively, optionally followed by a
// counter such as "Re[2]:" or "Re(2):".
var replyPrefixes = []string{"re", "fwd", "fw", "aw", "sv", "wg", "antw"}

// StripPrefixes removes any run of reply and forward prefixes. Bracketed list
// tags such as "[go-nuts]" or "[PATCH]" are kept.
func StripPrefixes(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		rest, ok := stripOne(s)
		if !ok {
			return s
		}
		s = rest
	}
}

func stripOne(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, p := range replyPrefixes {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		rest := s[len(p):]
		if len(rest) > 0 && (rest[0] == '[' || rest[0] == '(') {
			closing := byte(']')
			if rest[0] == '(' {
				closing = ')'
			}
			end := strings.IndexByte(rest, closing)
			if end < 0 || !allDigits(rest[1:end]) {
				continue
			}
			rest = rest[end+1:]
		}
		rest = strings.TrimLeft(rest, " \t")
		if !strings.HasPrefix(rest, ":") {
			continue
		}
		return strings.TrimSpace(rest[1:]), true
	}
	return s, false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SubjectKey is the grouping key for subject merging: prefixes stripped,
// whitespace folded, lower-cased.
func SubjectKey(subject string) string {
	return strings.ToLower(strings.Join(strings.Fields(StripPrefixes(subject)), " "))
}

// IsReply reports whether subject carries a reply or forward prefix.
func IsReply(subject string) bool {
	_, ok := stripOne(strings.TrimSpace(subject))
	return ok
}
