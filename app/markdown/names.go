package markdown

import (
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	datedFilename = regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}-(.*?)\.md$`)
	mdExtension   = regexp.MustCompile(`(?i)\.md$`)
	slugUnsafe    = regexp.MustCompile(`(?i)[^a-z0-9]`)
	slugDashes    = regexp.MustCompile(`-+`)
)

// IsMarkdownFile reports whether name has a .md extension.
func IsMarkdownFile(name string) bool {
	return mdExtension.MatchString(name)
}

// TitleFromFilename derives a post title from a file name.
// "2024-01-01-hello-world.md" becomes "Hello World"; names without a date
// prefix only lose the extension and have hyphens turned into spaces.
func TitleFromFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))

	if m := datedFilename.FindStringSubmatch(name); m != nil {
		words := strings.ReplaceAll(m[1], "-", " ")
		return cases.Title(language.Und, cases.NoLower).String(words)
	}

	return strings.ReplaceAll(mdExtension.ReplaceAllString(name, ""), "-", " ")
}

func Slugify(title string) string {
	slug := slugUnsafe.ReplaceAllString(title, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.ToLower(slug)
}

// Filename names an exported post: <YYYY-MM-DD>-<slug>.md.
func Filename(title string, pubDate time.Time) string {
	return pubDate.UTC().Format(time.DateOnly) + "-" + Slugify(title) + ".md"
}
