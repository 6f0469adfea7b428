package service

import (
	"time"

	"github.com/noah-isme/codepulse-api/internal/models"
)

// DefaultStaleAfter is the freshness window for provider snapshots and derived metrics.
const DefaultStaleAfter = 24 * time.Hour

// FallbackMessage annotates stale data served because a refresh failed.
const FallbackMessage = "Using cached data due to API error"

// StalenessGate decides whether a stored record may be served without refetching.
type StalenessGate struct {
	maxAge time.Duration
	now    func() time.Time
}

// NewStalenessGate constructs a gate. A non-positive maxAge falls back to 24 hours.
func NewStalenessGate(maxAge time.Duration, now func() time.Time) *StalenessGate {
	if maxAge <= 0 {
		maxAge = DefaultStaleAfter
	}
	if now == nil {
		now = time.Now
	}
	return &StalenessGate{maxAge: maxAge, now: now}
}

// MaxAge returns the freshness window.
func (g *StalenessGate) MaxAge() time.Duration { return g.maxAge }

// Now returns the gate's clock reading.
func (g *StalenessGate) Now() time.Time { return g.now() }

// IsStale reports whether a record must be refreshed.
func (g *StalenessGate) IsStale(lastUpdated time.Time, exists, force bool) bool {
	if force || !exists {
		return true
	}
	return g.now().Sub(lastUpdated) > g.maxAge
}

// GithubReposStale additionally treats an empty cached repo list as stale, unless the record is a
// definitive not-found.
func (g *StalenessGate) GithubReposStale(data *models.GithubData, force bool) bool {
	if data == nil {
		return true
	}
	if g.IsStale(data.LastUpdated, true, force) {
		return true
	}
	return len(data.Repos) == 0 && !data.NotFound
}

// LeetCodeStale reports whether a LeetCode snapshot must be refreshed.
func (g *StalenessGate) LeetCodeStale(data *models.LeetCodeData, force bool) bool {
	if data == nil {
		return true
	}
	return g.IsStale(data.LastUpdated, true, force)
}

// MetricsStale reports whether derived metrics must be recomputed.
func (g *StalenessGate) MetricsStale(metrics *models.StudentMetrics, force bool) bool {
	if metrics == nil {
		return true
	}
	return g.IsStale(metrics.LastUpdated, true, force)
}
