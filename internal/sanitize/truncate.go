package sanitize

import "unicode/utf8"

// TruncateUTF8 returns the longest prefix of s, on a code point boundary,
// whose UTF-8 length is at most maxBytes. The second result reports whether
// anything was cut.
//
// The search is a binary search over the number of runes in the prefix;
// the byte length of a prefix grows monotonically with its rune count.
func TruncateUTF8(s string, maxBytes int) (string, bool) {
	if len(s) <= maxBytes {
		return s, false
	}
	if maxBytes <= 0 {
		return "", true
	}

	// offsets[k] is the byte length of the first k runes.
	offsets := make([]int, 0, utf8.RuneCountInString(s)+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))

	low, high := 0, len(offsets)-1
	for low < high {
		mid := (low + high + 1) / 2
		if offsets[mid] <= maxBytes {
			low = mid
		} else {
			high = mid - 1
		}
	}
	return s[:offsets[low]], true
}
