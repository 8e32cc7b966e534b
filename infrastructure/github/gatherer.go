package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v74/github"

	"github.com/gimlabs/gim/domain/issue"
	"github.com/gimlabs/gim/domain/scoring"
	"github.com/gimlabs/gim/domain/service"
)

// HarvestIssues streams the repository's open issues, newest first, up to
// maxIssues. The listing endpoint interleaves pull requests with issues;
// pull requests are skipped without counting against the cap. Junk rows
// are dropped after counting, so a junk-heavy repository still terminates
// after maxIssues pulls.
func (f *Forge) HarvestIssues(ctx context.Context, repo issue.Repository, maxIssues int) (<-chan issue.PendingIssue, <-chan error) {
	issues := make(chan issue.PendingIssue, issueBuffer)
	errs := make(chan error, 1)

	go func() {
		defer close(issues)
		defer close(errs)

		owner, name, ok := strings.Cut(repo.FullName(), "/")
		if !ok {
			errs <- fmt.Errorf("malformed repository name %q", repo.FullName())
			return
		}

		opts := &github.IssueListByRepoOptions{
			State:       "open",
			Sort:        "created",
			Direction:   "desc",
			ListOptions: github.ListOptions{PerPage: perPage},
		}

		pulled := 0
		dropped := 0
		for page := 1; page != 0 && pulled < maxIssues; {
			opts.ListOptions.Page = page
			list, resp, err := f.client.Issues.ListByRepo(ctx, owner, name, opts)
			if err != nil {
				errs <- fmt.Errorf("list issues %s page %d: %w", repo.FullName(), page, err)
				return
			}

			for _, gi := range list {
				if pulled == maxIssues {
					break
				}
				if gi.PullRequestLinks != nil {
					continue
				}
				pulled++

				body := gi.GetBody()
				if scoring.IsJunk(body) {
					dropped++
					continue
				}

				labels := make([]string, 0, len(gi.Labels))
				for _, l := range gi.Labels {
					labels = append(labels, l.GetName())
				}

				pending := issue.NewPendingIssue(
					gi.GetNodeID(),
					repo.NodeID(),
					gi.GetTitle(),
					body,
					labels,
					issue.State(gi.GetState()),
					gi.GetHTMLURL(),
					gi.GetCreatedAt().Time,
					scoring.ComputeComponents(repo.PrimaryLanguage(), gi.GetTitle(), body),
				)

				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case issues <- pending:
				}
			}

			page = resp.NextPage
		}

		f.logger.Debug("harvest complete",
			slog.String("repo", repo.FullName()),
			slog.Int("pulled", pulled),
			slog.Int("junk_dropped", dropped),
		)
	}()

	return issues, errs
}

var _ service.Forge = (*Forge)(nil)
