package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v74/github"

	"github.com/gimlabs/gim/domain/issue"
)

// DiscoverRepositories searches for public repositories at or above the
// star floor, most-starred first. Results are deduplicated by node ID and
// capped at maxRepos. The search API itself stops serving results past the
// first thousand, so very low floors are bounded either way.
func (f *Forge) DiscoverRepositories(ctx context.Context, minStars, maxRepos int) ([]issue.Repository, error) {
	if maxRepos <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf("stars:>=%d is:public", minStars)
	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	seen := make(map[string]struct{}, maxRepos)
	repos := make([]issue.Repository, 0, maxRepos)

	for page := 1; page != 0 && len(repos) < maxRepos; {
		opts.Page = page
		result, resp, err := f.client.Search.Repositories(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("search repositories page %d: %w", page, err)
		}

		for _, r := range result.Repositories {
			if len(repos) == maxRepos {
				break
			}
			nodeID := r.GetNodeID()
			if nodeID == "" {
				continue
			}
			if _, ok := seen[nodeID]; ok {
				continue
			}
			seen[nodeID] = struct{}{}
			repos = append(repos, issue.NewRepository(
				nodeID,
				r.GetFullName(),
				r.GetLanguage(),
				r.Topics,
				r.GetStargazersCount(),
			))
		}

		page = resp.NextPage
	}

	f.logger.Info("repository discovery complete",
		slog.Int("repos", len(repos)),
		slog.Int("min_stars", minStars),
	)
	return repos, nil
}
