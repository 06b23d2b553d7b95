package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Fish & Chips", PlainText("<p>Fish &amp; <strong>Chips</strong></p>"))
	assert.Equal(t, "", PlainText(""))
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "<p>Hello world</p>", "Hello world"},
		{"exactly five words", "<p>one two three four five</p>", "one two three four five"},
		{"truncated", "<p>one two three four five six</p>", "one two three four five..."},
		{"markup only", "<p></p>", "Untitled Post"},
		{"empty", "", "Untitled Post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.content))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("<p>abc</p>", "abc"))
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.InDelta(t, 0.5, Similarity("abcd", "ab"), 1e-9)

	// A leading insertion shifts every position
	assert.Less(t, Similarity("abcdef", "xabcdef"), DuplicateThreshold)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, IsDuplicate("Hello", "<p>Hello world</p>", "hello", "<p>Hello world</p>\n"))
	assert.False(t, IsDuplicate("Hello", "<p>Hello world</p>", "Goodbye", "<p>Hello world</p>"))
	assert.False(t, IsDuplicate("Hello", "<p>Hello world</p>", "Hello", "<p>Something else entirely</p>"))
}

func TestExportedMarkdownIsDuplicateOfSource(t *testing.T) {
	original := "<h2>Notes</h2><p>Hello <strong>there</strong>, friend.</p><ul><li>one</li><li>two</li></ul>"

	source, err := FromHTML(original)
	require.NoError(t, err)

	rendered, err := ToHTML(source)
	require.NoError(t, err)

	assert.Greater(t, Similarity(original, rendered), DuplicateThreshold)
}

func TestSimilarityComparesTextAsWritten(t *testing.T) {
	// Same prefix, then every position shifted by the dropped space
	assert.InDelta(t, 5.0/11.0, Similarity("<p>hello world</p>", "<p>helloworld!</p>"), 1e-9)
	assert.False(t, IsDuplicate("hello world", "<p>hello world</p>", "hello world", "<p>helloworld!</p>"))

	// Entities are not decoded
	assert.Less(t, Similarity("<p>a &amp; b</p>", "<p>a & b</p>"), 1.0)

	// Only the ends are trimmed
	assert.Equal(t, 1.0, Similarity("  <p>same</p>\n", "<p>same</p>"))
}

func TestToHTMLJoinsBlocks(t *testing.T) {
	out, err := ToHTML("# Title\n\nFirst paragraph\nsame paragraph\n\n- one\n- two\n")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1><p>First paragraph\nsame paragraph</p><ul><li>one</li><li>two</li></ul>", out)
}
