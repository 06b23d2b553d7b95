package markdown

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"
)

var frontmatterPattern = regexp.MustCompile(`^---\s*\n([\s\S]*?)\n---\s*\n`)

// Frontmatter holds the keys recognised in a post header. Date is zero when
// the header has no date or an unparsable one.
type Frontmatter struct {
	Title   string
	Date    time.Time
	Private bool
}

type rawFrontmatter struct {
	Title   string `yaml:"title"`
	Date    string `yaml:"date"`
	Private string `yaml:"private"`
}

// ParseFrontmatter splits a leading --- block off text. It returns the parsed
// header, the remaining body and whether a block was present.
func ParseFrontmatter(text string) (Frontmatter, string, bool) {
	match := frontmatterPattern.FindStringSubmatchIndex(text)
	if match == nil {
		return Frontmatter{}, text, false
	}

	block := text[match[2]:match[3]]
	body := text[match[1]:]

	var raw rawFrontmatter
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		raw = parseFrontmatterLines(block)
	}

	fm := Frontmatter{
		Title:   strings.TrimSpace(raw.Title),
		Private: strings.TrimSpace(raw.Private) == "true",
	}
	if date := strings.TrimSpace(raw.Date); date != "" {
		if t, err := dateparse.ParseIn(date, time.UTC); err == nil {
			fm.Date = t.UTC()
		}
	}

	return fm, body, true
}

// parseFrontmatterLines reads "key: value" lines from headers that are not
// valid YAML, e.g. unquoted titles containing a colon.
func parseFrontmatterLines(block string) rawFrontmatter {
	var raw rawFrontmatter
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = strings.ReplaceAll(value[1:len(value)-1], `\"`, `"`)
		}

		switch strings.TrimSpace(key) {
		case "title":
			raw.Title = value
		case "date":
			raw.Date = value
		case "private":
			raw.Private = value
		}
	}
	return raw
}

// RenderFrontmatter writes the header block followed by a blank line.
func RenderFrontmatter(title string, date time.Time, private bool) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(title)

	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(`title: "` + escaped + "\"\n")
	b.WriteString("date: " + FormatISO(date) + "\n")
	if private {
		b.WriteString("private: true\n")
	} else {
		b.WriteString("private: false\n")
	}
	b.WriteString("---\n\n")
	return b.String()
}

// FormatISO renders t in UTC with millisecond precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
