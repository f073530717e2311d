package indexing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	frontMatterRegex  = regexp.MustCompile(`\A---[ \t]*\r?\n(?:(?s:.*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)
	codeFenceRegex    = regexp.MustCompile("(?s)```.*?```")
	formattingRegex   = regexp.MustCompile("[#*_~`]")
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	headingRegex      = regexp.MustCompile(fmt.Sprintf(`(?m)^(#{%d,%d})[ \t]+(.+)$`, MinHeadingLevel, MaxHeadingLevel))
)

// StripMarkdownLinks removes markdown link syntax, keeping only the text
// Example: "[Text](url)" -> "Text"
func StripMarkdownLinks(text string) string {
	return markdownLinkRegex.ReplaceAllString(text, "$1")
}

// StripFrontMatter removes a leading block delimited by "---" lines
func StripFrontMatter(text string) string {
	return frontMatterRegex.ReplaceAllString(text, "")
}

// PlainText converts raw markdown into a single line of searchable text.
// Stripping is best-effort: unbalanced fences or exotic syntax may leave
// residue in the output.
func PlainText(raw string) string {
	text := StripFrontMatter(raw)
	text = codeFenceRegex.ReplaceAllString(text, "")
	text = StripMarkdownLinks(text)
	text = formattingRegex.ReplaceAllString(text, "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate returns at most max runes of text, never splitting a UTF-8 sequence
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	count := 0
	for i := range text {
		if count == max {
			return text[:i]
		}
		count++
	}
	return text
}

// CreateAnchor creates a URL fragment from heading text
// Example: "Fields of Tiered Rate Limit" -> "fields-of-tiered-rate-limit"
func CreateAnchor(text string) string {
	anchor := strings.ToLower(text)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	// Keep word characters and hyphens only
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return -1
	}, anchor)
}

// ExtractHeadings returns the MinHeadingLevel to MaxHeadingLevel headings of raw markdown in textual order.
// The scan runs over the unstripped text, so headings inside code fences are
// reported too.
func ExtractHeadings(raw string) []Heading {
	matches := headingRegex.FindAllStringSubmatch(raw, -1)
	headings := make([]Heading, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  text,
			Slug:  CreateAnchor(text),
		})
	}
	return headings
}
