package dto

// Repository is one tracked repository in the public listing.
type Repository struct {
	NodeID            string   `json:"node_id"`
	FullName          string   `json:"full_name"`
	PrimaryLanguage   string   `json:"primary_language"`
	Topics            []string `json:"topics"`
	StargazerCount    int      `json:"stargazer_count"`
	IssueVelocityWeek float64  `json:"issue_velocity_week"`
}

// RepositoriesResponse is one page of the repository listing, stars
// descending. The listing probes one row past the page instead of
// counting, so it carries has_more without a total.
type RepositoriesResponse struct {
	Items    []Repository `json:"items"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	HasMore  bool         `json:"has_more"`
}
