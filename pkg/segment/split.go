package segment

import "strings"

// Split splits text on the literal delimiter, trims every piece and drops the
// pieces that are empty after trimming. Order is preserved.
// An empty delimiter does not split: the trimmed text is the only candidate.
func Split(text, delimiter string) []string {
	var pieces []string
	if delimiter == "" {
		pieces = []string{text}
	} else {
		pieces = strings.Split(text, delimiter)
	}

	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Equal reports whether two collections hold the same segments in the same order.
// A nil and an empty collection are equal.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
