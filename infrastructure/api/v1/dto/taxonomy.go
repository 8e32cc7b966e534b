package dto

// TaxonomyResponse lists one canonical vocabulary, sorted.
type TaxonomyResponse struct {
	Values []string `json:"values"`
}
