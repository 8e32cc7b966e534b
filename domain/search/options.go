package search

import "github.com/gimlabs/gim/domain/repository"

// WithQuery passes the search query text through the option system.
func WithQuery(query string) repository.Option {
	return repository.WithParam("search_query", query)
}

// QueryFrom extracts the search query text from a built query.
func QueryFrom(q repository.Query) (string, bool) {
	v, ok := q.Param("search_query")
	if !ok {
		return "", false
	}
	text, ok := v.(string)
	return text, ok
}

// WithEmbedding passes a pre-computed query embedding through options.
func WithEmbedding(embedding []float64) repository.Option {
	return repository.WithParam("embedding", embedding)
}

// EmbeddingFrom extracts the query embedding from a built query.
func EmbeddingFrom(q repository.Query) ([]float64, bool) {
	v, ok := q.Param("embedding")
	if !ok {
		return nil, false
	}
	emb, ok := v.([]float64)
	return emb, ok
}

// WithFilters passes search filters through the option system.
func WithFilters(filters Filters) repository.Option {
	return repository.WithParam("search_filters", filters)
}

// FiltersFrom extracts search filters from a built query.
func FiltersFrom(q repository.Query) (Filters, bool) {
	v, ok := q.Param("search_filters")
	if !ok {
		return Filters{}, false
	}
	f, ok := v.(Filters)
	return f, ok
}
