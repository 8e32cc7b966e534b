package dto

import "time"

// FeedItem is one served feed entry. Similarity and Reasons appear only
// on personalized pages.
type FeedItem struct {
	Issue
	RepoTopics []string `json:"repo_topics,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}

// FeedResponse is one served feed page. BatchID is the handle the
// recommendation events endpoint verifies submissions against.
type FeedResponse struct {
	BatchID        string     `json:"batch_id"`
	Items          []FeedItem `json:"items"`
	Total          int64      `json:"total"`
	Page           int        `json:"page"`
	PageSize       int        `json:"page_size"`
	HasMore        bool       `json:"has_more"`
	IsPersonalized bool       `json:"is_personalized"`
	ProfileCTA     string     `json:"profile_cta,omitempty"`
	ServedAt       time.Time  `json:"served_at"`
}
