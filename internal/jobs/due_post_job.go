package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/repository"
)

const dispatchConcurrency = 10

// PublishDispatcher hands one stored post to whatever runs the publish
// attempt.
type PublishDispatcher interface {
	DispatchPublish(ctx context.Context, post *models.Post) error
}

type DuePostJob struct {
	pr         repository.PostRepository
	dispatcher PublishDispatcher
	now        func() time.Time
}

func NewDuePostJob(pr repository.PostRepository, dispatcher PublishDispatcher) *DuePostJob {
	return &DuePostJob{
		pr:         pr,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// SweepResult counts what one sweep did.
type SweepResult struct {
	Found      int `json:"found"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}

// Run dispatches scheduled posts whose time has come and every pending post.
func (j *DuePostJob) Run(ctx context.Context) (*SweepResult, error) {
	due, err := j.pr.ListDue(ctx, j.now())
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	pending, err := j.pr.ListByStatus(ctx, models.PostStatusPending, 0)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	posts := make([]*models.Post, 0, len(due)+len(pending))
	seen := make(map[int64]struct{}, len(due)+len(pending))
	for _, p := range append(due, pending...) {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		posts = append(posts, p)
	}

	result := &SweepResult{Found: len(posts)}
	if len(posts) == 0 {
		return result, nil
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	semaphore := make(chan struct{}, dispatchConcurrency)

	for _, post := range posts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(post *models.Post) {
			defer wg.Done()
			defer func() { <-semaphore }()

			err := j.dispatcher.DispatchPublish(ctx, post)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("dispatch due post", "post_id", post.ID, "error", err)
				result.Failed++
				return
			}
			result.Dispatched++
		}(post)
	}

	wg.Wait()

	slog.Info("due post sweep finished", "found", result.Found, "dispatched", result.Dispatched, "failed", result.Failed)
	return result, nil
}

// Sweep is the cron entry point.
func (j *DuePostJob) Sweep() {
	if _, err := j.Run(context.Background()); err != nil {
		slog.Error("due post sweep", "error", err)
	}
}
