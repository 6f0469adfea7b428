package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
)

func ptrTo[T any](v T) *T { return &v }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock { return &testClock{now: now} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type rosterStub struct {
	students map[string]models.Student
	err      error
}

func newRosterStub(students ...models.Student) *rosterStub {
	r := &rosterStub{students: map[string]models.Student{}}
	for _, s := range students {
		r.students[s.ID] = s
	}
	return r
}

func (r *rosterStub) FindByID(_ context.Context, id string) (*models.Student, error) {
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *rosterStub) ListByClass(_ context.Context, classID string) ([]models.Student, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Student
	for _, s := range r.students {
		if s.Class() == classID {
			out = append(out, s)
		}
	}
	sortStudents(out)
	return out, nil
}

func (r *rosterStub) ListAll(_ context.Context) ([]models.Student, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.Student, 0, len(r.students))
	for _, s := range r.students {
		out = append(out, s)
	}
	sortStudents(out)
	return out, nil
}

func sortStudents(students []models.Student) {
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
}

type githubStoreStub struct {
	mu      sync.Mutex
	records map[string]models.GithubData
	upserts int
}

func newGithubStoreStub() *githubStoreStub {
	return &githubStoreStub{records: map[string]models.GithubData{}}
}

func (s *githubStoreStub) FindByUserID(_ context.Context, userID string) (*models.GithubData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	return &data, nil
}

func (s *githubStoreStub) Upsert(_ context.Context, data *models.GithubData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[data.UserID] = *data
	s.upserts++
	return nil
}

type githubProviderStub struct {
	mu         sync.Mutex
	users      map[string]*models.GithubUser
	repos      map[string][]models.Repository
	commits    map[string][]models.Commit
	userErr    error
	reposErr   error
	commitErrs map[string]error
	userCalls  int
	repoCalls  int
}

func newGithubProviderStub() *githubProviderStub {
	return &githubProviderStub{
		users:      map[string]*models.GithubUser{},
		repos:      map[string][]models.Repository{},
		commits:    map[string][]models.Commit{},
		commitErrs: map[string]error{},
	}
}

func (p *githubProviderStub) GetUser(_ context.Context, login string) (*models.GithubUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userCalls++
	if p.userErr != nil {
		return nil, p.userErr
	}
	user, ok := p.users[login]
	if !ok {
		return nil, appErrors.NewProviderError("github", appErrors.KindNotFound, 404, nil)
	}
	return user, nil
}

func (p *githubProviderStub) ListRepos(_ context.Context, login string) ([]models.Repository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.repoCalls++
	if p.reposErr != nil {
		return nil, p.reposErr
	}
	repos := make([]models.Repository, len(p.repos[login]))
	copy(repos, p.repos[login])
	return repos, nil
}

func (p *githubProviderStub) ListCommits(_ context.Context, _ string, repo string) ([]models.Commit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.commitErrs[repo]; err != nil {
		return nil, err
	}
	return p.commits[repo], nil
}

type leetcodeStoreStub struct {
	mu      sync.Mutex
	records map[string]models.LeetCodeData
	upserts int
}

func newLeetCodeStoreStub() *leetcodeStoreStub {
	return &leetcodeStoreStub{records: map[string]models.LeetCodeData{}}
}

func (s *leetcodeStoreStub) FindByUserID(_ context.Context, userID string) (*models.LeetCodeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	return &data, nil
}

func (s *leetcodeStoreStub) Upsert(_ context.Context, data *models.LeetCodeData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[data.UserID] = *data
	s.upserts++
	return nil
}

type leetcodeProviderStub struct {
	mu       sync.Mutex
	profiles map[string]*models.LeetCodeProfile
	err      error
	calls    int
}

func (p *leetcodeProviderStub) FetchProfile(_ context.Context, username string) (*models.LeetCodeProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	profile, ok := p.profiles[username]
	if !ok {
		return nil, appErrors.NewProviderError("leetcode", appErrors.KindNotFound, 404, nil)
	}
	return profile, nil
}

type metricsStoreStub struct {
	mu      sync.Mutex
	records map[string]models.StudentMetrics
	upserts int
}

func newMetricsStoreStub() *metricsStoreStub {
	return &metricsStoreStub{records: map[string]models.StudentMetrics{}}
}

func (s *metricsStoreStub) FindByUserID(_ context.Context, userID string) (*models.StudentMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *metricsStoreStub) Upsert(_ context.Context, metrics *models.StudentMetrics) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.records[metrics.UserID]
	s.records[metrics.UserID] = *metrics
	s.upserts++
	return !existed, nil
}

func (s *metricsStoreStub) ListByUserIDs(_ context.Context, userIDs []string) ([]models.StudentMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.StudentMetrics
	for _, id := range userIDs {
		if m, ok := s.records[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}
