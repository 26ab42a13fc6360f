package model

// NodeType identifies the role of a node in the link graph.
type NodeType string

const (
	NodeRoot         NodeType = "root"
	NodeElementGroup NodeType = "element_group"
	NodeInternal     NodeType = "internal"
	NodeExternal     NodeType = "external"
)

// GraphNode is one node in the layered link visualization.
// Layer is a visualization depth, unrelated to DOM depth.
type GraphNode struct {
	ID            string   `json:"id"`
	Label         string   `json:"label"`
	URL           string   `json:"url"`
	Type          NodeType `json:"type"`
	Domain        string   `json:"domain"`
	Layer         int      `json:"layer"`
	Path          string   `json:"path,omitempty"`
	StatusCode    *int     `json:"status_code,omitempty"`
	IsBroken      bool     `json:"is_broken,omitempty"`
	AnchorText    string   `json:"anchor_text,omitempty"`
	ParentElement string   `json:"parent_element,omitempty"`
}

// GraphEdge connects two nodes. Path is set for internal-link edges;
// Count carries the running aggregate for external-domain edges.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Path  string `json:"path,omitempty"`
	Count int    `json:"count,omitempty"`
}

// GraphStats summarizes a built graph.
type GraphStats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
	Internal   int `json:"internal"`
	External   int `json:"external"`
	Layers     int `json:"layers"`
}

// Graph is the complete layout result for one job's link set.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}
