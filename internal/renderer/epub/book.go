// Package epub renders reflowable EPUB books as a sequence of spine units.
// A unit's page number is its spine position; positions inside a unit are
// character offsets, addressed by locators of the form
//
//	epubcfi(/6/<2*(spine+1)>!/4:<offset>)
package epub

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

var ErrNoContent = errors.New("epub has no readable content")

// Unit is one spine document reduced to plain text.
type Unit struct {
	Href string
	Text []rune
}

// Book is the extracted spine of an EPUB file.
type Book struct {
	Units []Unit
}

// Open extracts the spine of the EPUB at path.
func Open(path string) (*Book, error) {
	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}

	book := &Book{}
	for _, ref := range rc.Rootfiles[0].Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		text, err := readUnit(ref.Item)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ref.Item.HREF, err)
		}
		book.Units = append(book.Units, Unit{Href: ref.Item.HREF, Text: []rune(text)})
	}
	if len(book.Units) == 0 {
		return nil, ErrNoContent
	}
	return book, nil
}

// OpenBytes extracts the spine of an EPUB held in memory.
func OpenBytes(data []byte) (*Book, error) {
	f, err := os.CreateTemp("", "rustypages-*.epub")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return Open(f.Name())
}

// Texts returns the plain text of every unit in spine order.
func (b *Book) Texts() []string {
	out := make([]string, len(b.Units))
	for i, u := range b.Units {
		out[i] = string(u.Text)
	}
	return out
}

func readUnit(item *epub.Item) (string, error) {
	r, err := item.Open()
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return extractText(string(data)), nil
}

func extractText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "head", "script", "style":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				if out.Len() > 0 {
					out.WriteString(" ")
				}
				out.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out.String()
}
