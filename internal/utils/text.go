package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Contains reports whether text includes any of the keywords. Callers
// lowercase text once before matching.
func Contains(text string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// StripCommand removes the first case-insensitive occurrence of keyword
// from text and trims the remainder. The payload of "edit bug template
// <content>" is whatever surrounds the command phrase.
func StripCommand(text, keyword string) string {
	lowered := strings.ToLower(text)
	idx := strings.Index(lowered, strings.ToLower(keyword))
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:idx] + text[idx+len(keyword):])
}

// StripMentions removes <@U…> mention tags so command matching sees only
// the words the user typed.
func StripMentions(text string) string {
	for {
		start := strings.Index(text, "<@")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], ">")
		if end < 0 {
			break
		}
		text = text[:start] + text[start+end+1:]
	}
	return strings.TrimSpace(text)
}

// invisible characters that chat clients smuggle into pasted URLs
var invisibleReplacer = strings.NewReplacer(
	"​", "",
	"‌", "",
	"‍", "",
	"\uFEFF", "",
	" ", " ",
)

// CleanURL unwraps Slack's <url|label> link markup and normalizes the
// result: NFKC folding, zero-width character removal, whitespace trim.
func CleanURL(raw string) string {
	url := strings.TrimSpace(raw)
	if strings.HasPrefix(url, "<") && strings.HasSuffix(url, ">") {
		inner := url[1 : len(url)-1]
		if pipe := strings.Index(inner, "|"); pipe >= 0 {
			inner = inner[:pipe]
		}
		url = inner
	}
	url = norm.NFKC.String(url)
	url = invisibleReplacer.Replace(url)
	return strings.TrimSpace(url)
}
