package updater

import (
	"strconv"
	"strings"
)

// compareVersions orders a and b by dotted integer segments, treating
// missing trailing segments as 0 and stripping non-numeric characters from
// each segment (so "1.2.3-beta" compares as "1.2.3"). If every segment of
// either string fails to parse as an integer at all, falls back to a plain
// lexicographic comparison (spec §4.11).
func compareVersions(a, b string) int {
	as, aOK := splitNumeric(a)
	bs, bOK := splitNumeric(b)
	if !aOK || !bOK {
		return strings.Compare(a, b)
	}

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// splitNumeric parses a dotted version string into integer segments,
// stripping non-digit characters from each segment first. ok is false if
// not a single segment parsed as a number (signaling lexicographic
// fallback).
func splitNumeric(v string) ([]int, bool) {
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	anyNumeric := false
	for _, p := range parts {
		digits := stripNonDigits(p)
		if digits == "" {
			out = append(out, 0)
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			out = append(out, 0)
			continue
		}
		anyNumeric = true
		out = append(out, n)
	}
	return out, anyNumeric
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
