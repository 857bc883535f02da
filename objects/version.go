package objects

import (
	"strconv"
	"strings"
)

const versionDelimiters = ".-_"

func versionTokens(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return strings.ContainsRune(versionDelimiters, r)
	})
}

// CompareVersions orders version strings such as "2.15.1" or "1.0-3" component by
// component. A numeric component beats a non-numeric one; when both are non-numeric the
// whole strings are compared lexically. Versions whose components all match are equal
// whatever their delimiters. The result is negative, zero or positive.
func CompareVersions(a, b string) int {
	ta, tb := versionTokens(a), versionTokens(b)
	for i := 0; i < len(ta) || i < len(tb); i++ {
		if i >= len(ta) || i >= len(tb) {
			return len(ta) - len(tb)
		}

		na, errA := strconv.Atoi(ta[i])
		nb, errB := strconv.Atoi(tb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return na - nb
			}
		case errA == nil:
			return 1
		case errB == nil:
			return -1
		default:
			return strings.Compare(a, b)
		}
	}
	return 0
}

// IsSuperversionOf reports whether every component of super appears, in order, at the
// start of sub. "2.15" is a superversion of "2.15.1".
func IsSuperversionOf(super, sub string) bool {
	ts, tsub := versionTokens(super), versionTokens(sub)
	if len(tsub) < len(ts) {
		return false
	}
	for i, tok := range ts {
		if tsub[i] != tok {
			return false
		}
	}
	return true
}
