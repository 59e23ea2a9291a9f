// Package chunker splits prose into pieces no longer than a rune budget,
// preferring paragraph, line, sentence and word breaks in that order.
package chunker

import (
	"strings"
	"unicode/utf8"
)

var separators = []string{"\n\n", "\n", ". ", " "}

// Split returns the trimmed, non-empty pieces of text, each at most size
// runes long. A size <= 0 returns text as a single piece.
func Split(text string, size int) []string {
	if size <= 0 {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	for _, part := range splitRecursive(text, separators, size) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Clip returns the leading piece of text that fits in size runes, cut at the
// most natural break available. Text that already fits is returned trimmed.
func Clip(text string, size int) string {
	text = strings.TrimSpace(text)
	if size <= 0 || utf8.RuneCountInString(text) <= size {
		return text
	}
	pieces := Split(text, size)
	if len(pieces) == 0 {
		return ""
	}
	return pieces[0]
}

func splitRecursive(text string, seps []string, size int) []string {
	if utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	if len(seps) == 0 {
		var result []string
		runes := []rune(text)
		for i := 0; i < len(runes); i += size {
			end := min(i+size, len(runes))
			result = append(result, string(runes[i:end]))
		}
		return result
	}

	sep := seps[0]
	// Sentence breaks keep their full stop.
	keep := ""
	if sep == ". " {
		keep = "."
	}
	parts := strings.Split(text, sep)

	var result []string
	var current strings.Builder
	for i, part := range parts {
		if i < len(parts)-1 {
			part += keep
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+len(joiner(sep))+utf8.RuneCountInString(part) > size {
			result = append(result, splitRecursive(current.String(), seps[1:], size)...)
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(joiner(sep))
		}
		current.WriteString(part)
	}
	if current.Len() > 0 {
		result = append(result, splitRecursive(current.String(), seps[1:], size)...)
	}
	return result
}

func joiner(sep string) string {
	if sep == ". " {
		return " "
	}
	return sep
}
