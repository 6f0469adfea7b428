package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/codepulse-api/internal/models"
	appErrors "github.com/noah-isme/codepulse-api/pkg/errors"
	"github.com/noah-isme/codepulse-api/pkg/jobs"
)

const refreshJobType = "metrics.refresh"

type metricsRefresh interface {
	Refresh(ctx context.Context, userID string, force bool) (*MetricsResult, error)
}

// RefresherConfig configures the background refresh queue.
type RefresherConfig struct {
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
	Scheduled  bool
	Interval   time.Duration
}

// MetricsRefresher recomputes student metrics on background workers, on demand or on a schedule.
type MetricsRefresher struct {
	students  StudentRoster
	metrics   metricsRefresh
	queue     *jobs.Queue
	scheduled bool
	interval  time.Duration
	logger    *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewMetricsRefresher constructs the refresher; call Start before enqueueing.
func NewMetricsRefresher(students StudentRoster, metrics metricsRefresh, cfg RefresherConfig, logger *zap.Logger) *MetricsRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultStaleAfter
	}
	r := &MetricsRefresher{
		students:  students,
		metrics:   metrics,
		scheduled: cfg.Scheduled,
		interval:  cfg.Interval,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	r.queue = jobs.NewQueue("metrics-refresh", r.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return r
}

// Start launches the workers and, when enabled, the periodic full refresh.
func (r *MetricsRefresher) Start(ctx context.Context) {
	r.queue.Start(ctx)
	if !r.scheduled {
		return
	}
	r.wg.Add(1)
	go r.schedule(ctx)
}

// Stop halts the schedule and drains the workers.
func (r *MetricsRefresher) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	r.wg.Wait()
	r.queue.Stop()
}

// Pending returns the number of refreshes waiting for a worker.
func (r *MetricsRefresher) Pending() int {
	return r.queue.Pending()
}

// EnqueueStudent schedules a forced refresh for one student. A refresh already pending for the
// student absorbs the request.
func (r *MetricsRefresher) EnqueueStudent(userID string) error {
	return r.queue.Enqueue(jobs.Job{Type: refreshJobType, Key: userID, Payload: userID})
}

// EnqueueClass schedules a forced refresh for every student in a class and returns the count.
func (r *MetricsRefresher) EnqueueClass(ctx context.Context, classID string) (int, error) {
	students, err := r.students.ListByClass(ctx, classID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	if len(students) == 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "no students found in this class")
	}
	return r.enqueue(students)
}

// EnqueueAll schedules a forced refresh for every student on the roster.
func (r *MetricsRefresher) EnqueueAll(ctx context.Context) (int, error) {
	students, err := r.students.ListAll(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return r.enqueue(students)
}

func (r *MetricsRefresher) enqueue(students []models.Student) (int, error) {
	for i, student := range students {
		if err := r.EnqueueStudent(student.ID); err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				return i, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "refresh queue is full, retry later")
			}
			return i, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue refresh")
		}
	}
	return len(students), nil
}

func (r *MetricsRefresher) schedule(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-ticker.C:
			count, err := r.EnqueueAll(ctx)
			if err != nil {
				r.logger.Error("scheduled refresh failed", zap.Int("enqueued", count), zap.Error(err))
				continue
			}
			r.logger.Info("scheduled refresh enqueued", zap.Int("students", count))
		}
	}
}

// handle refreshes one student. Degraded refreshes are returned as errors so the queue retries
// them; a student that no longer exists is dropped.
func (r *MetricsRefresher) handle(ctx context.Context, job jobs.Job) error {
	userID, ok := job.Payload.(string)
	if !ok || userID == "" {
		r.logger.Warn("refresh job without user id", zap.String("job_id", job.ID))
		return nil
	}
	result, err := r.metrics.Refresh(ctx, userID, true)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			r.logger.Info("refresh skipped for unknown student", zap.String("user_id", userID))
			return nil
		}
		return err
	}
	if result.Error != "" || result.Message == FallbackMessage {
		return fmt.Errorf("refresh %s degraded: %s%s", userID, result.Error, result.Message)
	}
	return nil
}
