package message

import "unicode/utf8"

// Suffix returns the last n code points of s, or s itself when it is shorter.
func Suffix(s string, n int) string {
	if n <= 0 {
		return ""
	}

	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}

	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}

		skip--
	}

	return ""
}
