// Package parser holds the extraction rules for each upstream page type. Every rule that
// depends on the shape of a third-party document lives here, so layout drift upstream
// means changing one matcher.
package parser

import (
	"bufio"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// compactText drops every whitespace rune, including ideographic spaces.
func compactText(input string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}

// cellText is the trimmed, concatenated text content of s.
func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}
