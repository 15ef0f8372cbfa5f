// Package epubtest builds minimal EPUB archives for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const container = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// Build returns an EPUB whose spine holds one XHTML document per chapter.
func Build(title string, chapters ...string) []byte {
	var manifest, spine strings.Builder
	for i := range chapters {
		fmt.Fprintf(&manifest, `    <item id="ch%d" href="ch%d.xhtml" media-type="application/xhtml+xml"/>`+"\n", i+1, i+1)
		fmt.Fprintf(&spine, `    <itemref idref="ch%d"/>`+"\n", i+1)
	}
	opf := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="id">urn:test:%s</dc:identifier>
    <dc:title>%s</dc:title>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`, html.EscapeString(title), html.EscapeString(title), manifest.String(), spine.String())

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype must be the first entry and stored uncompressed.
	w, _ := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	w.Write([]byte("application/epub+zip"))

	write := func(name, body string) {
		w, _ := zw.Create(name)
		w.Write([]byte(body))
	}
	write("META-INF/container.xml", container)
	write("OEBPS/content.opf", opf)
	for i, text := range chapters {
		write(fmt.Sprintf("OEBPS/ch%d.xhtml", i+1), fmt.Sprintf(
			`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Chapter %d</title></head>
<body><p>%s</p></body></html>`, i+1, html.EscapeString(text)))
	}
	zw.Close()
	return buf.Bytes()
}

// WriteFile builds an EPUB into the test's temporary directory and returns
// its path.
func WriteFile(t testing.TB, title string, chapters ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(path, Build(title, chapters...), 0o644); err != nil {
		t.Fatalf("write epub: %v", err)
	}
	return path
}
