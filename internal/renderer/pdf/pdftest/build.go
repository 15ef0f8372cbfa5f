// Package pdftest builds small well-formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Build returns a PDF with the given number of blank pages. Object 1 is the
// catalog, object 2 the page tree and objects 3 onward the pages.
func Build(pages int) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}

	offsets := []int{}
	add := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	add("<< /Type /Catalog /Pages 2 0 R >>")
	add(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>")
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

// Revise appends an incremental update that replaces object num with body,
// the way editors save changes without rewriting the file.
func Revise(data []byte, num int, body string) []byte {
	prev := lastInt(data, "startxref\n")
	size := lastInt(data, "/Size ")

	var b bytes.Buffer
	b.Write(data)
	off := b.Len()
	fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", num, body)

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 1\n0000000000 65535 f \n%d 1\n%010d 00000 n \n", num, off)
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", size, prev, xref)
	return b.Bytes()
}

// WriteFile writes Build(pages) to a temporary file and returns its path.
func WriteFile(t *testing.T, pages int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, Build(pages), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

// lastInt reads the integer following the last occurrence of key.
func lastInt(data []byte, key string) int {
	i := bytes.LastIndex(data, []byte(key))
	if i < 0 {
		return 0
	}
	rest := data[i+len(key):]
	end := bytes.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(rest)
	}
	n, _ := strconv.Atoi(string(rest[:end]))
	return n
}
