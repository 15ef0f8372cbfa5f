// Package pdf renders paginated PDF documents. Pages are the only unit of
// position; the locator of a page is its number in decimal.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	pdfread "github.com/ledongthuc/pdf"
)

var (
	ErrNoPages   = errors.New("pdf has no pages")
	ErrMalformed = errors.New("unreadable pdf")
)

// Document is a PDF file reduced to its page count.
type Document struct {
	Pages int
}

// Open reads the PDF at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return Parse(data)
}

// Parse reads the page count of a PDF held in memory.
func Parse(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, fmt.Errorf("%w: not a pdf document", ErrMalformed)
	}
	n, err := CountPages(data)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoPages
	}
	return &Document{Pages: n}, nil
}

// CountPages returns the /Count of the document's page tree, as resolved
// through the newest cross-reference section.
func CountPages(data []byte) (n int, err error) {
	// The reader panics on some malformed object syntax.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	rd, err := pdfread.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return rd.NumPage(), nil
}
