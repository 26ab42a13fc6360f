package crawler

import (
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pagegraph/pagegraph/internal/model"
)

const maxAnchorText = 500

// semanticAncestors are the tags that contribute to a link's parent
// element path. Narrower than structureTags: div and the document
// scaffolding tags carry no layout meaning for link placement.
var semanticAncestors = map[string]bool{
	"header": true, "footer": true, "nav": true, "main": true,
	"section": true, "article": true, "aside": true,
}

// ExtractLinks walks every hyperlink with a non-empty href in document
// order, resolves it against the page URL, and classifies it as internal
// or external by exact host comparison. Links with non-http(s) schemes
// are dropped.
func (p *Page) ExtractLinks() []model.LinkRecord {
	var links []model.LinkRecord
	p.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := p.base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		linkType := model.LinkExternal
		if resolved.Host == p.base.Host {
			linkType = model.LinkInternal
		}

		links = append(links, model.LinkRecord{
			URL:           resolved.String(),
			Type:          linkType,
			AnchorText:    truncate(strings.TrimSpace(sel.Text()), maxAnchorText),
			ParentElement: parentElementPath(sel.Nodes[0]),
		})
	})
	return links
}

// parentElementPath walks the link's ancestors up to (but excluding)
// body, collecting named semantic containers bottom-up, then reverses
// them into an outermost-to-innermost " > "-joined path. Falls back to
// the literal "body" when no semantic ancestor exists.
func parentElementPath(n *html.Node) string {
	var parts []string
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if cur.Data == "body" {
			break
		}
		if semanticAncestors[cur.Data] {
			parts = append(parts, describeElement(cur))
		}
	}

	if len(parts) == 0 {
		return "body"
	}
	slices.Reverse(parts)
	return strings.Join(parts, " > ")
}

// describeElement names a semantic container: tag#id when it has an id,
// tag.firstClass when it has classes, else the bare tag.
func describeElement(n *html.Node) string {
	if id := attrVal(n, "id"); id != "" {
		return n.Data + "#" + id
	}
	if classes := classList(n); len(classes) > 0 {
		return n.Data + "." + classes[0]
	}
	return n.Data
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
