package crawler

import (
	"golang.org/x/net/html"

	"github.com/pagegraph/pagegraph/internal/model"
)

// maxStructureDepth caps the structure tree; no node sits deeper than
// four levels below body.
const maxStructureDepth = 4

// structureTags are the container tags retained in the structure tree.
var structureTags = map[string]bool{
	"html": true, "head": true, "body": true,
	"header": true, "footer": true, "nav": true, "main": true,
	"section": true, "article": true, "aside": true, "div": true,
}

// StructureTree builds the semantic structure tree rooted at the page's
// body element, or nil when the page has no body.
func (p *Page) StructureTree() *model.StructureNode {
	body := p.doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}

	node, ok := buildStructureNode(body.Nodes[0], 0)
	if !ok {
		return nil
	}
	return &node
}

func buildStructureNode(n *html.Node, depth int) (model.StructureNode, bool) {
	if depth > maxStructureDepth {
		return model.StructureNode{}, false
	}

	return model.StructureNode{
		Tag:         n.Data,
		ID:          attrVal(n, "id"),
		Classes:     classList(n),
		ChildCounts: countChildTags(n),
		Children:    collectSemanticChildren(n, depth+1),
	}, true
}

// collectSemanticChildren gathers the retained nodes beneath n. A
// non-semantic child yields no node of its own, but its subtree is still
// scanned at the SAME depth: pruned wrappers are transparent to the
// tree, not terminators.
func collectSemanticChildren(n *html.Node, depth int) []model.StructureNode {
	var out []model.StructureNode
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if structureTags[c.Data] {
			if node, ok := buildStructureNode(c, depth); ok {
				out = append(out, node)
			}
			continue
		}
		out = append(out, collectSemanticChildren(c, depth)...)
	}
	return out
}

// countChildTags counts ALL direct element children by tag, regardless
// of whether they are retained in the tree.
func countChildTags(n *html.Node) map[string]int {
	counts := make(map[string]int)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			counts[c.Data]++
		}
	}
	return counts
}
