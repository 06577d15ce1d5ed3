package main

import "strings"

// processEscapeSequences expands \n, \t and similar sequences typed on the
// command line. Unknown sequences are kept as written.
func processEscapeSequences(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var result strings.Builder
	chars := []rune(s)

	for i := 0; i < len(chars); i++ {
		if chars[i] != '\\' || i+1 >= len(chars) {
			result.WriteRune(chars[i])
			continue
		}

		switch chars[i+1] {
		case 'n':
			result.WriteRune('\n')
		case 'r':
			result.WriteRune('\r')
		case 't':
			result.WriteRune('\t')
		case '0':
			result.WriteRune(0)
		case '\\':
			result.WriteRune('\\')
		default:
			result.WriteRune('\\')
			result.WriteRune(chars[i+1])
		}
		i++
	}

	return result.String()
}
