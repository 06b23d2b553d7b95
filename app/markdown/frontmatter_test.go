package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseFrontmatter(t *testing.T) {
	text := "---\ntitle: \"Say \\\"hi\\\"\"\ndate: 2024-01-01T10:00:00.000Z\nprivate: true\n---\n\nBody text\n"

	fm, body, ok := ParseFrontmatter(text)

	assert.True(t, ok)
	assert.Equal(t, `Say "hi"`, fm.Title)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), fm.Date)
	assert.True(t, fm.Private)
	assert.Equal(t, "Body text\n", body)
}

func TestParseFrontmatterDefaults(t *testing.T) {
	fm, body, ok := ParseFrontmatter("---\ntitle: Plain\n---\nBody")

	assert.True(t, ok)
	assert.Equal(t, "Plain", fm.Title)
	assert.True(t, fm.Date.IsZero())
	assert.False(t, fm.Private)
	assert.Equal(t, "Body", body)
}

func TestParseFrontmatterInvalidDate(t *testing.T) {
	fm, _, ok := ParseFrontmatter("---\ntitle: T\ndate: not a date\n---\nBody")

	assert.True(t, ok)
	assert.True(t, fm.Date.IsZero())
}

func TestParseFrontmatterFallsBackToLines(t *testing.T) {
	// Not valid YAML: the unquoted title contains a colon
	fm, body, ok := ParseFrontmatter("---\ntitle: Go: a tour\nprivate: false\n---\nBody")

	assert.True(t, ok)
	assert.Equal(t, "Go: a tour", fm.Title)
	assert.False(t, fm.Private)
	assert.Equal(t, "Body", body)
}

func TestParseFrontmatterAbsent(t *testing.T) {
	text := "# Heading\n\n---\ntitle: nope\n---\n"

	fm, body, ok := ParseFrontmatter(text)

	assert.False(t, ok)
	assert.Empty(t, fm.Title)
	assert.Equal(t, text, body)
}

func TestRenderFrontmatterRoundTrip(t *testing.T) {
	date := time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC)

	header := RenderFrontmatter(`Quote "this"`, date, true)
	assert.Equal(t, "---\ntitle: \"Quote \\\"this\\\"\"\ndate: 2024-03-05T08:30:00.000Z\nprivate: true\n---\n\n", header)

	fm, body, ok := ParseFrontmatter(header + "Hello")
	assert.True(t, ok)
	assert.Equal(t, `Quote "this"`, fm.Title)
	assert.Equal(t, date, fm.Date)
	assert.True(t, fm.Private)
	assert.Equal(t, "Hello", body)
}
