package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-backoffice/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPurgeDrafts deletes implementation wizard drafts nobody touched
	// within the retention window.
	TaskPurgeDrafts = "drafts:purge"

	// PurgeDraftsCron runs the purge nightly.
	PurgeDraftsCron = "15 3 * * *"
)

// PurgeDraftsPayload carries the retention window. A zero MaxAge uses the
// worker's configured default.
type PurgeDraftsPayload struct {
	MaxAge time.Duration `json:"max_age"`
}

// NewPurgeDraftsTask constructs an Asynq task for the draft purge.
func NewPurgeDraftsTask(maxAge time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(PurgeDraftsPayload{MaxAge: maxAge})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurgeDrafts, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// DraftPurger deletes drafts last updated before cutoff.
type DraftPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// DraftPurge runs the purge against a draft store.
type DraftPurge struct {
	Store      DraftPurger
	DefaultTTL time.Duration
	Metrics    *jobmetrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Run deletes the drafts older than maxAge and returns how many went.
func (p *DraftPurge) Run(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		maxAge = p.DefaultTTL
	}
	if maxAge <= 0 {
		return 0, fmt.Errorf("jobs: purge drafts: no retention window")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	tracker := p.Metrics.Track(TaskPurgeDrafts)
	cutoff := now().Add(-maxAge)
	n, err := p.Store.PurgeBefore(ctx, cutoff)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("purge drafts", slog.Any("error", err))
		}
		return 0, tracker.End(err)
	}
	p.Metrics.AddPurgedDrafts(n)
	if p.Logger != nil {
		p.Logger.Info("purged drafts", slog.String("job", TaskPurgeDrafts), slog.Int64("count", n), slog.Time("cutoff", cutoff))
	}
	return n, tracker.End(nil)
}

// Handle processes TaskPurgeDrafts tasks.
func (p *DraftPurge) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PurgeDraftsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: decode %s payload: %v: %w", TaskPurgeDrafts, err, asynq.SkipRetry)
		}
	}
	_, err := p.Run(ctx, payload.MaxAge)
	return err
}

func sprint(args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintln(args...))
}
