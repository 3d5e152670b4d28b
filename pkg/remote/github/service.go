package github

import (
	"context"
	"net/http"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrMalformed marks a response from GitHub that is missing fields this
// tool depends on. It is distinct from transport errors so callers can
// tell "GitHub is down" from "GitHub answered nonsense".
var ErrMalformed = errors.New("malformed GitHub response")

// UserInfo is the authenticated user's identity.
type UserInfo struct {
	Login string
	Name  string
	Email string
}

// RepoInfo is one owned repository, reduced to what the wizard needs.
type RepoInfo struct {
	Name          string
	SSHURL        string
	CloneURL      string
	DefaultBranch string
	Description   string
	Private       bool
}

// Service wraps the GitHub API with per-key memoized caching: user info by
// token, owned repositories by username. Repeated calls with the same key
// share a single fetch; creating a repository evicts the owner's cached
// list.
type Service struct {
	factory ClientFactory
	users   *cache[UserInfo]
	repos   *cache[[]RepoInfo]
}

// NewService creates a service backed by real GitHub clients.
func NewService() *Service {
	return NewServiceWithFactory(DefaultClientFactory)
}

// NewServiceWithFactory creates a service with a custom client factory.
func NewServiceWithFactory(factory ClientFactory) *Service {
	return &Service{
		factory: factory,
		users:   newCache[UserInfo](),
		repos:   newCache[[]RepoInfo](),
	}
}

// UserInfo fetches the authenticated user for token, memoized per token.
// A response missing the display name or email fails with ErrMalformed.
func (s *Service) UserInfo(ctx context.Context, token string) (UserInfo, error) {
	if token == "" {
		return UserInfo{}, errors.New("token is required")
	}

	return s.users.do(ctx, token, func() (UserInfo, error) {
		logger := zerolog.Ctx(ctx)
		logger.Debug().Msg("fetching authenticated user")

		user, _, err := s.factory(token).GetUser(ctx)
		if err != nil {
			return UserInfo{}, errors.Errorf("fetching user: %w", err)
		}

		info := UserInfo{
			Login: user.GetLogin(),
			Name:  user.GetName(),
			Email: user.GetEmail(),
		}
		if info.Login == "" {
			return UserInfo{}, errors.Errorf("user has no login: %w", ErrMalformed)
		}
		if info.Name == "" {
			return UserInfo{}, errors.Errorf("user %s has no display name: %w", info.Login, ErrMalformed)
		}
		if info.Email == "" {
			return UserInfo{}, errors.Errorf("user %s has no public email: %w", info.Login, ErrMalformed)
		}
		return info, nil
	})
}

// ListRepos fetches the repositories owned by username, memoized per
// username. One malformed entry invalidates the whole batch.
func (s *Service) ListRepos(ctx context.Context, token string, username string) ([]RepoInfo, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}
	if username == "" {
		return nil, errors.New("username is required")
	}

	return s.repos.do(ctx, username, func() ([]RepoInfo, error) {
		logger := zerolog.Ctx(ctx)
		logger.Debug().Str("username", username).Msg("listing owned repositories")

		opts := &github.RepositoryListOptions{
			Sort:        "created",
			Affiliation: "owner",
			ListOptions: github.ListOptions{PerPage: 100},
		}
		repos, _, err := s.factory(token).ListRepositories(ctx, opts)
		if err != nil {
			return nil, errors.Errorf("listing repositories: %w", err)
		}

		out := make([]RepoInfo, 0, len(repos))
		for _, repo := range repos {
			info := RepoInfo{
				Name:          repo.GetName(),
				SSHURL:        repo.GetSSHURL(),
				CloneURL:      repo.GetCloneURL(),
				DefaultBranch: repo.GetDefaultBranch(),
				Description:   repo.GetDescription(),
				Private:       repo.GetPrivate(),
			}
			if info.Name == "" || info.SSHURL == "" || info.CloneURL == "" || info.DefaultBranch == "" {
				return nil, errors.Errorf("repository entry %q is incomplete: %w", info.Name, ErrMalformed)
			}
			out = append(out, info)
		}
		return out, nil
	})
}

// CreateRepo creates a new repository under the authenticated account and
// evicts the owner's cached repository list. Anything but 201 Created is an
// error.
func (s *Service) CreateRepo(ctx context.Context, token string, username string, name string, description string) (RepoInfo, error) {
	if token == "" {
		return RepoInfo{}, errors.New("token is required")
	}
	if name == "" {
		return RepoInfo{}, errors.New("repository name is required")
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("name", name).Msg("creating repository")

	repo := &github.Repository{
		Name:            github.String(name),
		Description:     github.String(description),
		AutoInit:        github.Bool(true),
		LicenseTemplate: github.String("mit"),
	}
	created, resp, err := s.factory(token).CreateRepository(ctx, repo)
	if err != nil {
		return RepoInfo{}, errors.Errorf("creating repository %s: %w", name, err)
	}
	if resp == nil || resp.StatusCode != http.StatusCreated {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return RepoInfo{}, errors.Errorf("creating repository %s: unexpected status %d", name, status)
	}

	s.repos.evict(username)

	return RepoInfo{
		Name:          created.GetName(),
		SSHURL:        created.GetSSHURL(),
		CloneURL:      created.GetCloneURL(),
		DefaultBranch: created.GetDefaultBranch(),
		Description:   created.GetDescription(),
		Private:       created.GetPrivate(),
	}, nil
}

// DefaultBranch looks up a repository's default branch in the owner's
// cached repository list.
func (s *Service) DefaultBranch(ctx context.Context, token string, username string, name string) (string, error) {
	repos, err := s.ListRepos(ctx, token, username)
	if err != nil {
		return "", err
	}
	for _, repo := range repos {
		if repo.Name == name {
			return repo.DefaultBranch, nil
		}
	}
	return "", errors.Errorf("repository %s not found for %s", name, username)
}

// SearchUsers runs a user search and returns the first matching login.
// No hit is not an error.
func (s *Service) SearchUsers(ctx context.Context, query string) (string, bool, error) {
	if query == "" {
		return "", false, errors.New("query is required")
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("query", query).Msg("searching users")

	result, _, err := s.factory("").SearchUsers(ctx, query, &github.SearchOptions{})
	if err != nil {
		return "", false, errors.Errorf("searching users: %w", err)
	}
	if len(result.Users) == 0 {
		return "", false, nil
	}

	login := result.Users[0].GetLogin()
	if login == "" {
		return "", false, errors.Errorf("search hit has no login: %w", ErrMalformed)
	}
	return login, true, nil
}
