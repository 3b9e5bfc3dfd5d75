package mail

import "strings"

const snippetLength = 150

// Snippet collapses whitespace and cuts the text to a short preview.
func Snippet(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	r := []rune(s)
	if len(r) > snippetLength {
		return string(r[:snippetLength]) + "..."
	}
	return s
}
