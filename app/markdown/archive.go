package markdown

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/lysyi3m/rss-publish/app/model"
)

// maxEntrySize bounds a single decompressed archive entry.
const maxEntrySize = 10 << 20

type File struct {
	Name    string
	Content []byte
}

// ReadArchive returns every .md entry of a zip archive, flat or nested.
// Entries that are not Markdown are ignored.
func ReadArchive(data []byte) ([]File, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", model.ErrInvalidFormat, err)
	}

	var files []File
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || !IsMarkdownFile(entry.Name) {
			continue
		}
		// macOS resource forks
		if strings.HasPrefix(entry.Name, "__MACOSX/") {
			continue
		}

		content, err := readEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", model.ErrInvalidFormat, entry.Name, err)
		}
		files = append(files, File{Name: entry.Name, Content: content})
	}

	return files, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(content) > maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxEntrySize)
	}
	return content, nil
}

// WriteArchive packs files into a zip archive in the given order.
func WriteArchive(files []File) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, file := range files {
		w, err := writer.Create(file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", file.Name, err)
		}
		if _, err := w.Write(file.Content); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", file.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
