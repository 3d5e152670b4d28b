package github

import (
	"context"

	"github.com/google/go-github/v60/github"
)

// GitHubClient defines the interface for GitHub API operations we need
type GitHubClient interface {
	GetUser(ctx context.Context) (*github.User, *github.Response, error)
	ListRepositories(ctx context.Context, opts *github.RepositoryListOptions) ([]*github.Repository, *github.Response, error)
	CreateRepository(ctx context.Context, repo *github.Repository) (*github.Repository, *github.Response, error)
	SearchUsers(ctx context.Context, query string, opts *github.SearchOptions) (*github.UsersSearchResult, *github.Response, error)
}

// ClientFactory builds a GitHubClient for a token. An empty token yields an
// unauthenticated client (user search works, the rest does not).
type ClientFactory func(token string) GitHubClient

// DefaultClientFactory builds real go-github clients.
func DefaultClientFactory(token string) GitHubClient {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &githubClientWrapper{client: client}
}

// githubClientWrapper wraps the GitHub client to implement our interface
type githubClientWrapper struct {
	client *github.Client
}

func (w *githubClientWrapper) GetUser(ctx context.Context) (*github.User, *github.Response, error) {
	return w.client.Users.Get(ctx, "")
}

func (w *githubClientWrapper) ListRepositories(ctx context.Context, opts *github.RepositoryListOptions) ([]*github.Repository, *github.Response, error) {
	return w.client.Repositories.List(ctx, "", opts)
}

func (w *githubClientWrapper) CreateRepository(ctx context.Context, repo *github.Repository) (*github.Repository, *github.Response, error) {
	return w.client.Repositories.Create(ctx, "", repo)
}

func (w *githubClientWrapper) SearchUsers(ctx context.Context, query string, opts *github.SearchOptions) (*github.UsersSearchResult, *github.Response, error) {
	return w.client.Search.Users(ctx, query, opts)
}
