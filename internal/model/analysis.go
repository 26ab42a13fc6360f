package model

import "encoding/json"

// LinkType classifies a link relative to the page it was found on.
type LinkType string

const (
	// LinkInternal means the resolved host exactly matches the page host.
	LinkInternal LinkType = "internal"
	// LinkExternal means the resolved host differs from the page host.
	LinkExternal LinkType = "external"
)

// AnalysisRequest is the input to a single page analysis.
type AnalysisRequest struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// AnalysisResult is the envelope the engine produces for one analysis.
// On a terminal fetch failure Success is false, Error carries the cause,
// and PageInfo is nil with an empty link set.
type AnalysisResult struct {
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	PageInfo      *PageInfo    `json:"page_info,omitempty"`
	Links         []LinkRecord `json:"links"`
	TotalLinks    int          `json:"total_links"`
	InternalLinks int          `json:"internal_links"`
	ExternalLinks int          `json:"external_links"`
}

// PageInfo holds everything extracted and scored from the fetched page.
type PageInfo struct {
	StatusCode      int               `json:"status_code"`
	Title           string            `json:"title"`
	MetaDescription string            `json:"meta_description"`
	ContentType     string            `json:"content_type"`
	ResponseTime    float64           `json:"response_time_seconds"`
	PageSize        int               `json:"page_size_bytes"`
	Structure       *StructureNode    `json:"structure_tree,omitempty"`
	StructuredData  []json.RawMessage `json:"structured_data_blocks,omitempty"`
	Audit           *AuditScore       `json:"audit_score,omitempty"`
}

// StructureNode is one retained element in the semantic structure tree.
// The tree is rooted at body and never deeper than four levels.
type StructureNode struct {
	Tag         string          `json:"tag"`
	ID          string          `json:"id"`
	Classes     []string        `json:"classes"`
	ChildCounts map[string]int  `json:"child_counts"`
	Children    []StructureNode `json:"children"`
}

// LinkRecord is one hyperlink found on the analyzed page.
// StatusCode is nil for links that were never probed; IsBroken stays
// false for unprobed links, which callers must read as "unknown",
// not "healthy".
type LinkRecord struct {
	URL           string   `json:"url"`
	Type          LinkType `json:"link_type"`
	AnchorText    string   `json:"anchor_text"`
	ParentElement string   `json:"parent_element"`
	StatusCode    *int     `json:"status_code"`
	IsBroken      bool     `json:"is_broken"`
}

// FindingCategory groups audit findings by the sub-score they relate to.
type FindingCategory string

const (
	CategoryPerformance   FindingCategory = "performance"
	CategoryAccessibility FindingCategory = "accessibility"
	CategorySEO           FindingCategory = "seo"
	CategoryBestPractices FindingCategory = "best_practices"
)

// FindingSeverity is the weight of an audit finding.
type FindingSeverity string

const (
	SeverityWarning FindingSeverity = "warning"
	SeverityError   FindingSeverity = "error"
)

// Finding is a human-readable audit observation, distinct from the
// numeric score it relates to.
type Finding struct {
	Category    FindingCategory `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    FindingSeverity `json:"severity"`
}

// AuditMetrics are the raw measurements behind the audit scores.
type AuditMetrics struct {
	ResponseTimeMS int     `json:"response_time_ms"`
	PageSizeKB     float64 `json:"page_size_kb"`
	DOMElements    int     `json:"dom_element_count"`
}

// AuditScore is the heuristic audit result: four sub-scores in [0,100],
// a weighted overall score, raw metrics, and actionable findings.
type AuditScore struct {
	Overall       int          `json:"overall"`
	Performance   int          `json:"performance"`
	Accessibility int          `json:"accessibility"`
	BestPractices int          `json:"best_practices"`
	SEO           int          `json:"seo"`
	Metrics       AuditMetrics `json:"metrics"`
	Findings      []Finding    `json:"findings"`
}

// ErrorResponse is the JSON shape returned on API failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
