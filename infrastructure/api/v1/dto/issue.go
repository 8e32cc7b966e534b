// Package dto holds the request and response shapes of the public HTTP
// API. Types here are plain JSON projections; mapping from domain values
// happens in the router package.
package dto

import "time"

// Issue is the presentation row shared by search results, feed entries
// and the issue detail endpoint.
type Issue struct {
	NodeID          string    `json:"node_id"`
	Title           string    `json:"title"`
	BodyPreview     string    `json:"body_preview"`
	HTMLURL         string    `json:"html_url"`
	Labels          []string  `json:"labels"`
	QScore          float64   `json:"q_score"`
	RepoName        string    `json:"repo_name"`
	PrimaryLanguage string    `json:"primary_language"`
	CreatedAt       time.Time `json:"created_at"`
}

// SimilarIssuesResponse lists the nearest open issues to a given one.
type SimilarIssuesResponse struct {
	Items []Issue `json:"items"`
}
