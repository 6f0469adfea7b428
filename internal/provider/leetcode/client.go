// Package leetcode fetches profile snapshots from the public LeetCode stats API.
package leetcode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/noah-isme/codepulse-api/internal/models"
	"github.com/noah-isme/codepulse-api/internal/provider"
	"github.com/noah-isme/codepulse-api/pkg/config"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

const (
	providerName   = "leetcode"
	defaultBaseURL = "https://leetcode-api-rk4o.onrender.com"
	maxBodyBytes   = 4 << 20
)

// Client talks to the LeetCode stats API.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
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

// WithHTTPClient overrides the transport.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a LeetCode client from configuration.
func NewClient(cfg config.LeetCodeConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:  base,
		http:     &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), len(endpoints)),
		observer: provider.NopObserver(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var endpoints = []string{"", "/badges", "/solved", "/contest", "/calendar"}

type badgesResponse struct {
	BadgesCount int                    `json:"badgesCount"`
	Badges      []models.LeetCodeBadge `json:"badges"`
}

type calendarResponse struct {
	SubmissionCalendar json.RawMessage `json:"submissionCalendar"`
}

// FetchProfile loads all five profile endpoints concurrently. A profile without a username is
// reported as not found.
func (c *Client) FetchProfile(ctx context.Context, username string) (*models.LeetCodeProfile, error) {
	start := time.Now()
	profile, err := c.fetchProfile(ctx, username)
	c.observer.ObserveProviderCall(providerName, "fetch_profile", provider.Outcome(err), time.Since(start))
	return profile, err
}

func (c *Client) fetchProfile(ctx context.Context, username string) (*models.LeetCodeProfile, error) {
	var (
		basic    models.LeetCodeBasicProfile
		badges   badgesResponse
		solved   models.LeetCodeSolvedProfile
		contests models.LeetCodeContests
		calendar calendarResponse
	)
	targets := []interface{}{&basic, &badges, &solved, &contests, &calendar}
	root := "/" + url.PathEscape(username)

	g, gctx := errgroup.WithContext(ctx)
	for i, suffix := range endpoints {
		path := root + suffix
		dest := targets[i]
		g.Go(func() error {
			return c.get(gctx, path, dest)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if basic.Username == "" {
		return nil, appErrors.NewProviderError(providerName, appErrors.KindNotFound, http.StatusOK,
			fmt.Errorf("profile %s has no username", username))
	}

	cal, err := ParseCalendar(calendar.SubmissionCalendar)
	if err != nil {
		c.logger.Warn("leetcode calendar unreadable", zap.String("username", username), zap.Error(err))
	}

	return &models.LeetCodeProfile{
		BasicProfile:    basic,
		Badges:          badges.Badges,
		CompleteProfile: solved,
		Contests:        contests,
		Calendar:        cal,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return appErrors.NewProviderError(providerName, appErrors.KindTransient, 0, fmt.Errorf("throttle: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return appErrors.NewProviderError(providerName, appErrors.KindTransient, 0, fmt.Errorf("build request %s: %w", path, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.NewProviderError(providerName, appErrors.KindTransient, 0, fmt.Errorf("get %s: %w", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		kind := appErrors.KindTransient
		switch resp.StatusCode {
		case http.StatusNotFound:
			kind = appErrors.KindNotFound
		case http.StatusTooManyRequests:
			kind = appErrors.KindRateLimited
		}
		return appErrors.NewProviderError(providerName, kind, resp.StatusCode, fmt.Errorf("get %s: status %d", path, resp.StatusCode))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dest); err != nil {
		return appErrors.NewProviderError(providerName, appErrors.KindTransient, resp.StatusCode, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

// ParseCalendar decodes a submission calendar keyed by unix seconds. The API returns it either
// as an object or as a JSON-encoded string.
func ParseCalendar(raw json.RawMessage) (map[string]int, error) {
	calendar := map[string]int{}
	if len(raw) == 0 || string(raw) == "null" {
		return calendar, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if encoded == "" {
			return calendar, nil
		}
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &calendar); err != nil {
		return map[string]int{}, fmt.Errorf("decode submission calendar: %w", err)
	}
	return calendar, nil
}
