package crawler

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is a parsed HTML document: a goquery layer for selector queries,
// the underlying node tree for ancestor walks, and the raw bytes for
// checks that need the unparsed source (doctype, page size).
type Page struct {
	doc  *goquery.Document
	base *url.URL
	raw  []byte
}

// ParsePage builds a Page from raw HTML, resolving links against base.
func ParsePage(raw []byte, base *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Page{doc: doc, base: base, raw: raw}, nil
}

// Title returns the trimmed text of the first title element, or "".
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// MetaDescription returns the content attribute of the description meta
// tag, or "".
func (p *Page) MetaDescription() string {
	return p.doc.Find(`meta[name="description"]`).First().AttrOr("content", "")
}

// StructuredData returns every valid JSON-LD block on the page.
// Malformed blocks are skipped silently; one page may contribute zero
// or more blocks.
func (p *Page) StructuredData() []json.RawMessage {
	var blocks []json.RawMessage
	p.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			return
		}
		blocks = append(blocks, json.RawMessage(text))
	})
	return blocks
}

// DOMElementCount counts every element node in the document.
func (p *Page) DOMElementCount() int {
	return p.doc.Find("*").Length()
}

// HasDoctype reports whether the raw source starts with a doctype
// declaration.
func (p *Page) HasDoctype() bool {
	head := bytes.TrimSpace(p.raw)
	if len(head) > 9 {
		head = head[:9]
	}
	return strings.EqualFold(string(head), "<!doctype")
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func classList(n *html.Node) []string {
	return strings.Fields(attrVal(n, "class"))
}
