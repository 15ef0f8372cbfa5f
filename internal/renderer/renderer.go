// Package renderer opens book content with the renderer matching its format.
package renderer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/rustypages/internal/entities"
	"github.com/mrlokans/rustypages/internal/progress"
	"github.com/mrlokans/rustypages/internal/renderer/epub"
	"github.com/mrlokans/rustypages/internal/renderer/pdf"
)

// Handle is an opened book.
type Handle struct {
	Format   entities.BookFormat
	Renderer progress.Renderer
	// EPUB is set for reflowable books and nil for PDFs.
	EPUB *epub.Renderer
	// PDF is set for fixed-page books.
	PDF *pdf.Renderer
	// Texts holds the unit texts used to build a location index. Nil for PDFs.
	Texts []string
}

// DetectFormat identifies a book by its leading bytes, falling back to the
// file extension.
func DetectFormat(name string, data []byte) (entities.BookFormat, error) {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return entities.BookFormatPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return entities.BookFormatEPUB, nil
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return entities.BookFormatPDF, nil
	case ".epub":
		return entities.BookFormatEPUB, nil
	}
	return "", fmt.Errorf("unsupported book format: %s", name)
}

// OpenFile opens the book at path.
func OpenFile(path string) (*Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book: %w", err)
	}
	format, err := DetectFormat(path, data)
	if err != nil {
		return nil, err
	}
	return Open(format, data)
}

// Open opens in-memory content of the given format.
func Open(format entities.BookFormat, data []byte) (*Handle, error) {
	switch format {
	case entities.BookFormatEPUB:
		book, err := epub.OpenBytes(data)
		if err != nil {
			return nil, err
		}
		r := epub.NewRenderer(book)
		return &Handle{Format: format, Renderer: r, EPUB: r, Texts: book.Texts()}, nil
	case entities.BookFormatPDF:
		doc, err := pdf.Parse(data)
		if err != nil {
			return nil, err
		}
		r := pdf.NewRenderer(doc)
		return &Handle{Format: format, Renderer: r, PDF: r}, nil
	default:
		return nil, fmt.Errorf("unsupported book format: %q", format)
	}
}
