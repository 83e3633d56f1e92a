package resolve

import "strings"

// objectPlaceholder is what a non-text value renders as when it leaks into
// markup as a string.
const objectPlaceholder = "[object Object]"

// Normalize reduces rendered text to one speakable line: placeholders are
// stripped, whitespace runs collapse to one space, and the first line left
// non-empty is returned trimmed.
func Normalize(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(line, objectPlaceholder, "")
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			return line
		}
	}
	return ""
}
