package dto

// SearchFilters narrows a search to languages, labels or repositories.
// Unknown languages are not an error; they simply match nothing.
type SearchFilters struct {
	Languages []string `json:"languages,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Repos     []string `json:"repos,omitempty"`
}

// SearchRequest is the hybrid search request body.
type SearchRequest struct {
	Query    string         `json:"query"`
	Filters  *SearchFilters `json:"filters,omitempty"`
	Page     int            `json:"page,omitempty"`
	PageSize int            `json:"page_size,omitempty"`
}

// SearchItem is one search result: the issue row plus its fused score.
type SearchItem struct {
	Issue
	RRFScore float64 `json:"rrf_score"`
}

// SearchResponse is one page of hybrid search results. SearchID is the
// handle the interact endpoint validates clicks against; it expires with
// the cached search context.
type SearchResponse struct {
	SearchID          string       `json:"search_id"`
	Items             []SearchItem `json:"items"`
	Total             int          `json:"total"`
	TotalIsLowerBound bool         `json:"total_is_lower_bound,omitempty"`
	Page              int          `json:"page"`
	PageSize          int          `json:"page_size"`
	HasMore           bool         `json:"has_more"`
}

// InteractRequest reports a click on a search result.
type InteractRequest struct {
	SearchID string `json:"search_id"`
	NodeID   string `json:"node_id"`
	Position int    `json:"position"`
}
