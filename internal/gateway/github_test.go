package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/repo-report/internal/domain"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Setup REST client to point to the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client to our mock server's URL.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())
	logger := log.New(io.Discard, "", 0)

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}

	return gateway, server
}

// commitPage renders n commits as a JSON array, authored by "dev-<page>".
func commitPage(page, n int) string {
	items := make([]string, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(
			`{"sha": "%d-%d", "commit": {"author": {"name": "dev-%d", "date": "2024-03-0%dT10:00:00Z"}}}`,
			page, i, page, page%9+1))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestGitHubGateway_FetchRepositoryInfo(t *testing.T) {
	testCases := []struct {
		name        string
		handlerFunc func(w http.ResponseWriter, r *http.Request)
		expected    *domain.RepoInfo
	}{
		{
			name: "happy path - maps repository metadata",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/octo/hello", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{
					"full_name": "octo/hello",
					"description": "demo",
					"language": "Go",
					"default_branch": "trunk",
					"stargazers_count": 42,
					"forks_count": 7,
					"open_issues_count": 3,
					"watchers_count": 42,
					"created_at": "2020-01-02T03:04:05Z",
					"updated_at": "2024-05-06T07:08:09Z"
				}`)
			},
			expected: &domain.RepoInfo{
				FullName:      "octo/hello",
				Description:   "demo",
				Language:      "Go",
				DefaultBranch: "trunk",
				Stars:         42,
				Forks:         7,
				OpenIssues:    3,
				Watchers:      42,
				CreatedAt:     time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
				UpdatedAt:     time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
			},
		},
		{
			name: "not found - returns nil",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expected: nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			info := gateway.FetchRepositoryInfo(context.Background(), "octo", "hello")

			if tc.expected == nil {
				assert.Nil(t, info)
				return
			}
			require.NotNil(t, info)
			assert.Equal(t, tc.expected.FullName, info.FullName)
			assert.Equal(t, tc.expected.Description, info.Description)
			assert.Equal(t, tc.expected.Language, info.Language)
			assert.Equal(t, tc.expected.DefaultBranch, info.DefaultBranch)
			assert.Equal(t, tc.expected.Stars, info.Stars)
			assert.Equal(t, tc.expected.Forks, info.Forks)
			assert.Equal(t, tc.expected.OpenIssues, info.OpenIssues)
			assert.Equal(t, tc.expected.Watchers, info.Watchers)
			assert.True(t, tc.expected.CreatedAt.Equal(info.CreatedAt))
			assert.True(t, tc.expected.UpdatedAt.Equal(info.UpdatedAt))
			assert.True(t, info.PushedAt.IsZero())
		})
	}
}

func TestGitHubGateway_FetchBranches(t *testing.T) {
	testCases := []struct {
		name        string
		handlerFunc func(w http.ResponseWriter, r *http.Request)
		expected    []domain.BranchRecord
	}{
		{
			name: "happy path - maps branches",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/octo/hello/branches", r.URL.Path)
				assert.Equal(t, "100", r.URL.Query().Get("per_page"))
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `[{"name": "main", "protected": true}, {"name": "dev"}]`)
			},
			expected: []domain.BranchRecord{{Name: "main", Protected: true}, {Name: "dev"}},
		},
		{
			name: "error case - returns empty list",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expected: []domain.BranchRecord{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			branches := gateway.FetchBranches(context.Background(), "octo", "hello")

			assert.Equal(t, tc.expected, branches)
		})
	}
}

func TestGitHubGateway_FetchCommits(t *testing.T) {
	testCases := []struct {
		name          string
		query         CommitQuery
		pageSizes     map[int]int
		failFromPage  int
		endless       bool
		expectedCount int
		expectedCalls int
	}{
		{
			name:          "stops at the first empty page",
			pageSizes:     map[int]int{1: 100, 2: 100},
			expectedCount: 200,
			expectedCalls: 3,
		},
		{
			name:          "stops at the record cap",
			query:         CommitQuery{MaxCommits: 500},
			endless:       true,
			expectedCount: 500,
			expectedCalls: 5,
		},
		{
			name:          "truncates a partial page at the record cap",
			query:         CommitQuery{MaxCommits: 150},
			endless:       true,
			expectedCount: 150,
			expectedCalls: 2,
		},
		{
			name:          "stops at the page cap",
			query:         CommitQuery{MaxPages: 3},
			endless:       true,
			expectedCount: 300,
			expectedCalls: 3,
		},
		{
			name:          "page cap wins over a larger record cap",
			query:         CommitQuery{MaxPages: 2, MaxCommits: 500},
			endless:       true,
			expectedCount: 200,
			expectedCalls: 2,
		},
		{
			name:          "keeps accumulated commits when a later page fails",
			pageSizes:     map[int]int{1: 100, 2: 100, 3: 100},
			failFromPage:  2,
			expectedCount: 100,
			expectedCalls: 2,
		},
		{
			name:          "first page fails",
			failFromPage:  1,
			expectedCount: 0,
			expectedCalls: 1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var calls int32
			handler := func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				assert.Equal(t, "/repos/octo/hello/commits", r.URL.Path)
				assert.Equal(t, "100", r.URL.Query().Get("per_page"))
				page, err := strconv.Atoi(r.URL.Query().Get("page"))
				require.NoError(t, err)

				if tc.failFromPage > 0 && page >= tc.failFromPage {
					w.WriteHeader(http.StatusBadGateway)
					fmt.Fprint(w, `{"message": "Bad Gateway"}`)
					return
				}
				size := tc.pageSizes[page]
				if tc.endless {
					size = 100
				}
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, commitPage(page, size))
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			commits := gateway.FetchCommits(context.Background(), "octo", "hello", tc.query)

			assert.Len(t, commits, tc.expectedCount)
			assert.Equal(t, int32(tc.expectedCalls), atomic.LoadInt32(&calls))
		})
	}
}

func TestGitHubGateway_FetchCommits_Records(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("sha"))
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[
			{"sha": "a", "commit": {"author": {"name": "Alice", "date": "2024-01-01T12:00:00Z"}}},
			{"sha": "b", "commit": {"author": {"name": "", "date": "2024-01-02T12:00:00Z"}}},
			{"sha": "c", "commit": {"message": "no author"}},
			{"sha": "d"}
		]`)
	}
	gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	commits := gateway.FetchCommits(context.Background(), "octo", "hello", CommitQuery{Branch: "main"})

	require.Len(t, commits, 2)
	assert.Equal(t, "Alice", commits[0].AuthorName)
	assert.True(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Equal(commits[0].AuthorDate))
	assert.Equal(t, UnknownAuthor, commits[1].AuthorName)
}

func TestGitHubGateway_FetchHistoryCount(t *testing.T) {
	testCases := []struct {
		name          string
		branch        string
		queryContains string
		responseBody  string
		expectedCount int
		expectedOK    bool
	}{
		{
			name:          "default branch",
			queryContains: "defaultBranchRef",
			responseBody:  `{"data":{"repository":{"defaultBranchRef":{"target":{"history":{"totalCount":1234}}}}}}`,
			expectedCount: 1234,
			expectedOK:    true,
		},
		{
			name:          "named branch",
			branch:        "release",
			queryContains: "refs/heads/release",
			responseBody:  `{"data":{"repository":{"ref":{"target":{"history":{"totalCount":56}}}}}}`,
			expectedCount: 56,
			expectedOK:    true,
		},
		{
			name:          "error case",
			queryContains: "defaultBranchRef",
			responseBody:  `{"errors":[{"message":"Something went wrong"}]}`,
			expectedOK:    false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), tc.queryContains)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			count, ok := gateway.FetchHistoryCount(context.Background(), "octo", "hello", tc.branch)

			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expectedCount, count)
		})
	}
}

func TestGitHubGateway_FetchHistoryCount_WithoutToken(t *testing.T) {
	gateway, err := NewGitHubGateway(Options{}, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	count, ok := gateway.FetchHistoryCount(context.Background(), "octo", "hello", "")

	assert.False(t, ok)
	assert.Zero(t, count)
}

func TestNewGitHubGateway(t *testing.T) {
	gateway, err := NewGitHubGateway(Options{
		Token:             "secret",
		BaseURL:           "https://ghe.example.com/api/v3/",
		GraphQLURL:        "https://ghe.example.com/api/graphql",
		Timeout:           5 * time.Second,
		RateLimitMaxSleep: time.Minute,
	}, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	assert.Equal(t, "https://ghe.example.com/api/v3/", gateway.restClient.BaseURL.String())
	assert.NotNil(t, gateway.graphqlClient)
}

func TestGitHubGateway_SendsToken(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[]`)
	}
	server := httptest.NewServer(http.HandlerFunc(handler))
	defer server.Close()

	gateway, err := NewGitHubGateway(Options{Token: "secret", BaseURL: server.URL + "/"}, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	branches := gateway.FetchBranches(context.Background(), "octo", "hello")
	assert.Empty(t, branches)
}
