// Package graph turns a job's persisted link records into a layered
// node/edge layout for visualization. It is a pure, stateless transform
// with no I/O.
package graph

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pagegraph/pagegraph/internal/model"
)

const (
	maxInternalNodes = 50
	maxExternalNodes = 30

	// Internal-node labels longer than this get truncated.
	labelLimit      = 20
	labelKeep       = 18
	anchorTextLimit = 30

	defaultLayer = 1
)

// elementLayers maps a parent path's leading tag token to the layer its
// element-group node sits on.
var elementLayers = map[string]int{
	"header":  1,
	"nav":     1,
	"main":    1,
	"footer":  1,
	"aside":   1,
	"body":    1,
	"section": 2,
	"article": 2,
}

// Build lays out the link graph for one job: a root node for the page
// host, element-group nodes for parent paths shared by more than one
// internal link, one node per internal link, and one aggregated node
// per external host. Internal links are capped to the first 50 and
// external links to the first 30, in stable input order.
func Build(rootURL string, links []model.LinkRecord) *model.Graph {
	rootHost := hostOf(rootURL)

	nodes := []model.GraphNode{{
		ID:     "root",
		Label:  rootHost,
		URL:    rootURL,
		Type:   model.NodeRoot,
		Domain: rootHost,
		Layer:  0,
	}}
	var edges []model.GraphEdge
	counter := 0

	internal := filterByType(links, model.LinkInternal, maxInternalNodes)
	external := filterByType(links, model.LinkExternal, maxExternalNodes)

	// Group internal links by parent path, preserving first-appearance order.
	var pathOrder []string
	groups := make(map[string][]model.LinkRecord)
	for _, link := range internal {
		parent := link.ParentElement
		if parent == "" {
			parent = "body"
		}
		if _, seen := groups[parent]; !seen {
			pathOrder = append(pathOrder, parent)
		}
		groups[parent] = append(groups[parent], link)
	}

	// Element-group nodes exist only for paths shared by >1 link.
	groupNodeIDs := make(map[string]string)
	for _, parent := range pathOrder {
		if len(groups[parent]) <= 1 {
			continue
		}

		id := fmt.Sprintf("element_%d", counter)
		counter++
		groupNodeIDs[parent] = id

		nodes = append(nodes, model.GraphNode{
			ID:            id,
			Label:         strings.ToUpper(parent),
			URL:           rootURL,
			Type:          model.NodeElementGroup,
			Domain:        rootHost,
			Layer:         groupLayer(parent),
			ParentElement: parent,
		})
		edges = append(edges, model.GraphEdge{From: "root", To: id})
	}

	// One node per internal link, hung off its group node when one
	// exists, otherwise directly off root.
	for _, parent := range pathOrder {
		for _, link := range groups[parent] {
			path := pathOf(link.URL)
			id := fmt.Sprintf("internal_%d", counter)
			counter++

			nodes = append(nodes, model.GraphNode{
				ID:            id,
				Label:         pathLabel(path),
				URL:           link.URL,
				Type:          model.NodeInternal,
				Domain:        hostOf(link.URL),
				Layer:         groupLayer(parent) + min(countSegments(path), 2) + 1,
				Path:          path,
				StatusCode:    link.StatusCode,
				IsBroken:      link.IsBroken,
				AnchorText:    truncateLabel(link.AnchorText, anchorTextLimit),
				ParentElement: parent,
			})

			from := "root"
			if groupID, ok := groupNodeIDs[parent]; ok {
				from = groupID
			}
			edges = append(edges, model.GraphEdge{From: from, To: id, Path: path})
		}
	}

	// External links collapse into one node per destination host; each
	// link adds another root edge carrying the running count.
	externalIDs := make(map[string]string)
	externalCounts := make(map[string]int)
	for _, link := range external {
		host := hostOf(link.URL)

		id, seen := externalIDs[host]
		if !seen {
			id = fmt.Sprintf("external_%d", counter)
			counter++
			externalIDs[host] = id

			parent := link.ParentElement
			if parent == "" {
				parent = "body"
			}
			nodes = append(nodes, model.GraphNode{
				ID:            id,
				Label:         host,
				URL:           link.URL,
				Type:          model.NodeExternal,
				Domain:        host,
				Layer:         1,
				Path:          pathOf(link.URL),
				StatusCode:    link.StatusCode,
				IsBroken:      link.IsBroken,
				ParentElement: parent,
			})
		}

		externalCounts[host]++
		edges = append(edges, model.GraphEdge{From: "root", To: id, Count: externalCounts[host]})
	}

	return &model.Graph{Nodes: nodes, Edges: edges, Stats: Stats(nodes, edges)}
}

// Stats aggregates counts over an already-built node/edge set. Feeding a
// built graph back through reproduces the same values.
func Stats(nodes []model.GraphNode, edges []model.GraphEdge) model.GraphStats {
	stats := model.GraphStats{TotalNodes: len(nodes), TotalEdges: len(edges)}
	for _, n := range nodes {
		switch n.Type {
		case model.NodeInternal:
			stats.Internal++
		case model.NodeExternal:
			stats.External++
		}
		if n.Layer > stats.Layers {
			stats.Layers = n.Layer
		}
	}
	return stats
}

func filterByType(links []model.LinkRecord, linkType model.LinkType, limit int) []model.LinkRecord {
	var out []model.LinkRecord
	for _, link := range links {
		if link.Type != linkType {
			continue
		}
		out = append(out, link)
		if len(out) == limit {
			break
		}
	}
	return out
}

// groupLayer resolves a parent path to its base layer via the path's
// leading tag token ("nav.main-nav > section#s1" resolves through "nav").
func groupLayer(parent string) int {
	base := parent
	if i := strings.Index(base, " > "); i >= 0 {
		base = base[:i]
	}
	if i := strings.IndexAny(base, "#."); i >= 0 {
		base = base[:i]
	}
	if layer, ok := elementLayers[base]; ok {
		return layer
	}
	return defaultLayer
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

func countSegments(path string) int {
	count := 0
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			count++
		}
	}
	return count
}

// pathLabel names an internal node: "Home" for the root path, otherwise
// the last non-empty segment, shortened when it runs long.
func pathLabel(path string) string {
	if path == "/" {
		return "Home"
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	label := segments[len(segments)-1]
	if label == "" {
		return "Page"
	}
	if runes := []rune(label); len(runes) > labelLimit {
		return string(runes[:labelKeep]) + ".."
	}
	return label
}

func truncateLabel(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
