package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/pkg/utils"
)

// Register wires the handlers into an asynq mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeLogin, q.HandleLoginTask)
	mux.HandleFunc(TaskTypePublish, q.HandlePublishTask)
}

func (q *Queue) HandleLoginTask(ctx context.Context, task *asynq.Task) error {
	var payload LoginPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	secret, err := utils.Open(payload.Secret, q.encryptionKey)
	if err != nil {
		log.Printf("Error opening login secret for task %s: %v", payload.TaskID, err)
		return err
	}

	return q.sessions.CompleteLogin(ctx, payload.TaskID, payload.Identity, secret, payload.WaitSeconds)
}

// HandlePublishTask replays a stored post. Failures are recorded on the post
// itself, so the task never asks asynq for a retry.
func (q *Queue) HandlePublishTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	post, err := q.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return err
	}
	if post == nil || !stillDue(post, time.Now()) {
		log.Printf("Post %d is no longer due, skipping", payload.PostID)
		return nil
	}

	outcome, err := q.posts.Publish(ctx, service.ReplayRequest(post))
	if err != nil {
		log.Printf("Error publishing post %d: %v", post.ID, err)
		return nil
	}

	log.Printf("Post %d replayed: %s", post.ID, outcome.Post.Status)
	return nil
}

func stillDue(post *models.Post, now time.Time) bool {
	switch post.Status {
	case models.PostStatusPending:
		return true
	case models.PostStatusScheduled:
		return post.ScheduledAt != nil && !post.ScheduledAt.After(now)
	}
	return false
}
