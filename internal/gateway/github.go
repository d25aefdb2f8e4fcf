// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/repo-report/internal/domain"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

const (
	// PerPage is the page size used for every list request.
	PerPage = 100
	// UnknownAuthor replaces an empty commit author name.
	UnknownAuthor = "Unknown"
)

// CommitQuery controls which commits are fetched and when pagination stops.
type CommitQuery struct {
	// Branch is sent as the sha parameter. Empty follows the repository's default branch.
	Branch string
	// MaxPages caps the number of pages requested. Zero disables the cap.
	MaxPages int
	// MaxCommits caps the number of accumulated records. Zero disables the cap.
	MaxCommits int
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
// Upstream failures never surface as errors: they degrade to absent, empty, or partial results.
type Fetcher interface {
	FetchRepositoryInfo(ctx context.Context, owner, name string) *domain.RepoInfo
	FetchBranches(ctx context.Context, owner, name string) []domain.BranchRecord
	FetchCommits(ctx context.Context, owner, name string, query CommitQuery) []domain.CommitRecord
	// FetchHistoryCount returns the total number of commits reachable from the branch,
	// or false when the count is unavailable.
	FetchHistoryCount(ctx context.Context, owner, name, branch string) (int, bool)
}

// Options configures the HTTP stack of a GitHubGateway.
type Options struct {
	// Token is optional. Without it requests are anonymous and GraphQL is disabled.
	Token string
	// BaseURL points the REST client at a GitHub Enterprise server.
	BaseURL string
	// GraphQLURL overrides the GraphQL endpoint.
	GraphQLURL string
	Timeout    time.Duration
	// RateLimitMaxSleep enables waiting on secondary rate limits for at most this long. Zero disables it.
	RateLimitMaxSleep time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient *github.Client
	// graphqlClient is nil when no token is configured.
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// historyCountQuery counts the commits reachable from the default branch.
type historyCountQuery struct {
	Repository struct {
		DefaultBranchRef struct {
			Target struct {
				Commit struct {
					History struct {
						TotalCount int
					}
				} `graphql:"... on Commit"`
			}
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// refHistoryCountQuery counts the commits reachable from a named ref.
type refHistoryCountQuery struct {
	Repository struct {
		Ref *struct {
			Target struct {
				Commit struct {
					History struct {
						TotalCount int
					}
				} `graphql:"... on Commit"`
			}
		} `graphql:"ref(qualifiedName: $ref)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *log.Logger) (*GitHubGateway, error) {
	var transport http.RoundTripper = http.DefaultTransport
	if opts.RateLimitMaxSleep > 0 {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(transport, github_ratelimit.WithSingleSleepLimit(opts.RateLimitMaxSleep, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		transport = rateLimitWaiter
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport, Timeout: opts.Timeout}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		var err error
		restClient, err = restClient.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid API base URL: %w", err)
		}
	}

	var graphqlClient *githubv4.Client
	switch {
	case opts.Token == "":
		logger.Println("No token configured, branch history counts are disabled.")
	case opts.GraphQLURL != "":
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	case opts.BaseURL == "":
		graphqlClient = githubv4.NewClient(httpClient)
	default:
		logger.Println("No GraphQL endpoint configured for the enterprise server, branch history counts are disabled.")
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// FetchRepositoryInfo returns the repository metadata, or nil when it cannot be retrieved.
func (g *GitHubGateway) FetchRepositoryInfo(ctx context.Context, owner, name string) *domain.RepoInfo {
	g.logger.Printf("Fetching repository info for %s/%s...", owner, name)
	repo, resp, err := g.restClient.Repositories.Get(ctx, owner, name)
	if err != nil {
		g.logger.Printf("Failed to get repo info (status %s): %v", statusOf(resp), err)
		return nil
	}
	return &domain.RepoInfo{
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		HTMLURL:       repo.GetHTMLURL(),
		Language:      repo.GetLanguage(),
		DefaultBranch: repo.GetDefaultBranch(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Watchers:      repo.GetWatchersCount(),
		CreatedAt:     repo.GetCreatedAt().Time,
		UpdatedAt:     repo.GetUpdatedAt().Time,
		PushedAt:      repo.GetPushedAt().Time,
	}
}

// FetchBranches returns a single page of branches, or an empty slice on failure.
func (g *GitHubGateway) FetchBranches(ctx context.Context, owner, name string) []domain.BranchRecord {
	g.logger.Printf("Fetching branches for %s/%s...", owner, name)
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: PerPage}}
	branches, resp, err := g.restClient.Repositories.ListBranches(ctx, owner, name, opts)
	if err != nil {
		g.logger.Printf("Failed to get branches (status %s): %v", statusOf(resp), err)
		return []domain.BranchRecord{}
	}
	records := make([]domain.BranchRecord, 0, len(branches))
	for _, b := range branches {
		records = append(records, domain.BranchRecord{Name: b.GetName(), Protected: b.GetProtected()})
	}
	return records
}

// FetchCommits pages through the commit list starting at page 1. It stops on the first empty page,
// at the page cap, or at the record cap, whichever comes first. A failed request ends pagination
// and the commits accumulated so far are returned.
func (g *GitHubGateway) FetchCommits(ctx context.Context, owner, name string, query CommitQuery) []domain.CommitRecord {
	g.logger.Printf("Fetching commits for %s/%s...", owner, name)
	opts := &github.CommitsListOptions{
		SHA:         query.Branch,
		ListOptions: github.ListOptions{Page: 1, PerPage: PerPage},
	}
	records := []domain.CommitRecord{}
	for {
		if query.MaxPages > 0 && opts.Page > query.MaxPages {
			g.logger.Printf("  Reached page limit (%d).", query.MaxPages)
			break
		}
		commits, resp, err := g.restClient.Repositories.ListCommits(ctx, owner, name, opts)
		if err != nil {
			g.logger.Printf("  Stopping at page %d (status %s): %v", opts.Page, statusOf(resp), err)
			break
		}
		if len(commits) == 0 {
			break
		}
		for _, c := range commits {
			if record, ok := toCommitRecord(c); ok {
				records = append(records, record)
			}
		}
		if query.MaxCommits > 0 && len(records) >= query.MaxCommits {
			records = records[:query.MaxCommits]
			g.logger.Printf("  Reached commit limit (%d).", query.MaxCommits)
			break
		}
		opts.Page++
		g.logger.Println("  Fetching next page of commits...")
	}
	g.logger.Printf("Completed fetching %d commits.", len(records))
	return records
}

// FetchHistoryCount queries the total commit count of a branch over GraphQL.
// An empty branch means the repository's default branch.
func (g *GitHubGateway) FetchHistoryCount(ctx context.Context, owner, name, branch string) (int, bool) {
	if g.graphqlClient == nil {
		return 0, false
	}
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if branch == "" {
		var q historyCountQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			g.logger.Printf("Failed to query history count: %v", err)
			return 0, false
		}
		return q.Repository.DefaultBranchRef.Target.Commit.History.TotalCount, true
	}
	variables["ref"] = githubv4.String("refs/heads/" + branch)
	var q refHistoryCountQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		g.logger.Printf("Failed to query history count: %v", err)
		return 0, false
	}
	if q.Repository.Ref == nil {
		g.logger.Printf("Branch %q not found, history count unavailable.", branch)
		return 0, false
	}
	return q.Repository.Ref.Target.Commit.History.TotalCount, true
}

// toCommitRecord drops commits without commit or author data.
func toCommitRecord(c *github.RepositoryCommit) (domain.CommitRecord, bool) {
	if c.GetCommit() == nil || c.GetCommit().GetAuthor() == nil {
		return domain.CommitRecord{}, false
	}
	author := c.GetCommit().GetAuthor()
	name := author.GetName()
	if name == "" {
		name = UnknownAuthor
	}
	return domain.CommitRecord{AuthorName: name, AuthorDate: author.GetDate().Time}, true
}

func statusOf(resp *github.Response) string {
	if resp == nil || resp.Response == nil {
		return "n/a"
	}
	return resp.Status
}
