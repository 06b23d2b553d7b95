package markdown

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

const (
	titleWords    = 5
	untitledTitle = "Untitled Post"

	// DuplicateThreshold is the similarity above which two posts with the
	// same title are treated as one.
	DuplicateThreshold = 0.8
)

// PlainText strips markup from an HTML fragment and decodes entities.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

// DeriveTitle builds a title for an authored post from the first words of
// its text.
func DeriveTitle(html string) string {
	text := PlainText(html)
	if text == "" {
		return untitledTitle
	}

	words := strings.Split(text, " ")
	preview := strings.Join(words[:min(len(words), titleWords)], " ")
	if len(preview) < len(text) {
		return preview + "..."
	}
	return preview
}

// Similarity compares two HTML bodies position by position: the number of
// equal characters over the shared prefix divided by the longer length.
// Tags are removed and the ends trimmed; entities and inner whitespace are
// compared as they are.
func Similarity(a, b string) float64 {
	x := []rune(stripTags(a))
	y := []rune(stripTags(b))

	longest := max(len(x), len(y))
	if longest == 0 {
		return 0
	}

	same := 0
	for i := 0; i < min(len(x), len(y)); i++ {
		if x[i] == y[i] {
			same++
		}
	}
	return float64(same) / float64(longest)
}

// IsDuplicate reports whether an incoming post matches an existing one:
// equal titles ignoring case and similar content.
func IsDuplicate(existingTitle, existingHTML, title, html string) bool {
	if strings.ToLower(existingTitle) != strings.ToLower(title) {
		return false
	}
	return Similarity(existingHTML, html) > DuplicateThreshold
}

func stripTags(html string) string {
	return strings.TrimSpace(htmlTag.ReplaceAllString(html, ""))
}
