package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

	// Newlines goldmark emits between block tags
	blockBreaks = regexp.MustCompile(`>\n+<`)
)

// ToHTML renders Markdown source as HTML. Block tags are joined without
// separating newlines, the same shape stored posts have.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.TrimSpace(blockBreaks.ReplaceAllString(buf.String(), "><")), nil
}

// FromHTML converts stored post HTML back to Markdown using ATX headings,
// fenced code blocks and * for emphasis.
func FromHTML(html string) (string, error) {
	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
		EmDelimiter:    "*",
	})

	out, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert html to markdown: %w", err)
	}
	return out, nil
}
