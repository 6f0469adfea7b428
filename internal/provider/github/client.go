// Package github fetches repository and commit activity from the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v62/github"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/internal/provider"
	"github.com/noah-isme/codepulse-api/pkg/config"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

const (
	providerName = "github"
	perPage      = 100
)

// Client wraps go-github with a request throttle and error classification.
type Client struct {
	api      *gh.Client
	limiter  *rate.Limiter
	maxPages int
	observer provider.Observer
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithObserver records call metrics.
func WithObserver(o provider.Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLimiter overrides the request throttle.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// NewClient builds a GitHub client from configuration.
func NewClient(cfg config.GitHubConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	api := gh.NewClient(&http.Client{Timeout: cfg.Timeout})
	if cfg.Token != "" {
		api = api.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		api.BaseURL = u
	}

	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = 5000
	}
	burst := cfg.CommitConcurrency
	if burst <= 0 {
		burst = 1
	}
	maxPages := cfg.MaxRepoPages
	if maxPages <= 0 {
		maxPages = 10
	}

	c := &Client{
		api:      api,
		limiter:  rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), burst),
		maxPages: maxPages,
		observer: provider.NopObserver(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetUser fetches a public profile.
func (c *Client) GetUser(ctx context.Context, login string) (*models.GithubUser, error) {
	start := time.Now()
	user, err := c.getUser(ctx, login)
	c.observer.ObserveProviderCall(providerName, "get_user", provider.Outcome(err), time.Since(start))
	return user, err
}

func (c *Client) getUser(ctx context.Context, login string) (*models.GithubUser, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	u, resp, err := c.api.Users.Get(ctx, login)
	if err != nil {
		return nil, classify("get user "+login, resp, err)
	}
	return &models.GithubUser{
		Login:       u.GetLogin(),
		AvatarURL:   u.GetAvatarURL(),
		HTMLURL:     u.GetHTMLURL(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
	}, nil
}

// ListRepos returns every public repository of login, up to the configured page limit.
func (c *Client) ListRepos(ctx context.Context, login string) ([]models.Repository, error) {
	start := time.Now()
	repos, err := c.listRepos(ctx, login)
	c.observer.ObserveProviderCall(providerName, "list_repos", provider.Outcome(err), time.Since(start))
	return repos, err
}

func (c *Client) listRepos(ctx context.Context, login string) ([]models.Repository, error) {
	opts := &gh.RepositoryListByUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: perPage, Page: 1},
	}

	repos := make([]models.Repository, 0)
	for page := 0; page < c.maxPages; page++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		batch, resp, err := c.api.Repositories.ListByUser(ctx, login, opts)
		if err != nil {
			return nil, classify("list repos "+login, resp, err)
		}
		for _, r := range batch {
			repos = append(repos, toRepository(r))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

// ListCommits returns the most recent commits of owner/repo.
func (c *Client) ListCommits(ctx context.Context, owner, repo string) ([]models.Commit, error) {
	start := time.Now()
	commits, err := c.listCommits(ctx, owner, repo)
	c.observer.ObserveProviderCall(providerName, "list_commits", provider.Outcome(err), time.Since(start))
	return commits, err
}

func (c *Client) listCommits(ctx context.Context, owner, repo string) ([]models.Commit, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &gh.CommitsListOptions{ListOptions: gh.ListOptions{PerPage: perPage, Page: 1}}
	batch, resp, err := c.api.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, classify(fmt.Sprintf("list commits %s/%s", owner, repo), resp, err)
	}

	commits := make([]models.Commit, 0, len(batch))
	for _, rc := range batch {
		author := rc.GetCommit().GetAuthor()
		commits = append(commits, models.Commit{
			Message: rc.GetCommit().GetMessage(),
			Date:    author.GetDate().Time.UTC(),
			URL:     rc.GetHTMLURL(),
			Author:  author.GetName(),
			SHA:     rc.GetSHA(),
		})
	}
	return commits, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return appErrors.NewProviderError(providerName, appErrors.KindTransient, 0, fmt.Errorf("throttle: %w", err))
	}
	return nil
}

func toRepository(r *gh.Repository) models.Repository {
	return models.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		HTMLURL:     r.GetHTMLURL(),
		Language:    r.GetLanguage(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Size:        r.GetSize(),
		CreatedAt:   timePtr(r.GetCreatedAt()),
		UpdatedAt:   timePtr(r.GetUpdatedAt()),
		PushedAt:    timePtr(r.GetPushedAt()),
	}
}

func timePtr(ts gh.Timestamp) *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func classify(op string, resp *gh.Response, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return appErrors.NewProviderError(providerName, appErrors.KindRateLimited, http.StatusForbidden, wrapped)
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		status = errResp.Response.StatusCode
	}

	kind := appErrors.KindTransient
	switch status {
	case http.StatusNotFound:
		kind = appErrors.KindNotFound
	case http.StatusConflict:
		kind = appErrors.KindEmptyRepo
	case http.StatusTooManyRequests:
		kind = appErrors.KindRateLimited
	case http.StatusForbidden:
		if errResp != nil && strings.Contains(strings.ToLower(errResp.Message), "rate limit") {
			kind = appErrors.KindRateLimited
		}
	}
	return appErrors.NewProviderError(providerName, kind, status, wrapped)
}
