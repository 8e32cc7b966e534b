package dto

import "time"

// StatsResponse is the public platform snapshot.
type StatsResponse struct {
	OpenIssues   int64     `json:"open_issues"`
	Repositories int64     `json:"repositories"`
	Languages    int64     `json:"languages"`
	GeneratedAt  time.Time `json:"generated_at"`
}
