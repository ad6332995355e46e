package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/pkg/utils"
)

const loginTaskRetention = time.Hour

// DispatchLogin enqueues a remote login. The secret is sealed when an
// encryption key is configured, since the payload sits in Redis.
func (d *Dispatcher) DispatchLogin(ctx context.Context, taskID, identity, secret string, waitSeconds int) error {
	sealed, err := utils.Seal(secret, d.encryptionKey)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(LoginPayload{
		TaskID:      taskID,
		Identity:    identity,
		Secret:      sealed,
		WaitSeconds: waitSeconds,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeLogin, payload)
	timeout := time.Duration(waitSeconds)*time.Second + 2*time.Minute

	_, err = d.client.EnqueueContext(ctx, task,
		asynq.TaskID("session:login:"+taskID),
		asynq.MaxRetry(0),
		asynq.Timeout(timeout),
		asynq.Retention(loginTaskRetention),
	)
	if err != nil {
		return err
	}

	log.Printf("Login task queued: %s", taskID)
	return nil
}

// DispatchPublish enqueues one publish attempt for a stored post. A post that
// is already queued is skipped.
func (d *Dispatcher) DispatchPublish(ctx context.Context, post *models.Post) error {
	payload, err := json.Marshal(PublishPayload{PostID: post.ID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublish, payload)

	_, err = d.client.EnqueueContext(ctx, task,
		asynq.TaskID(fmt.Sprintf("post:publish:%d", post.ID)),
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Printf("Publish task for post %d already queued", post.ID)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("Publish task queued: post %d", post.ID)
	return nil
}
