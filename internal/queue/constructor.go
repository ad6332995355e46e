package queue

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/fbscheduler/internal/repository"
	"github.com/maheshrc27/fbscheduler/internal/service"
)

const (
	TaskTypeLogin   = "session:login"
	TaskTypePublish = "post:publish"
)

type LoginPayload struct {
	TaskID      string `json:"task_id"`
	Identity    string `json:"identity"`
	Secret      string `json:"secret"`
	WaitSeconds int    `json:"wait_seconds"`
}

type PublishPayload struct {
	PostID int64 `json:"post_id"`
}

// Enqueuer is the part of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher puts login and publish work on the asynq queue.
type Dispatcher struct {
	client        Enqueuer
	encryptionKey string
}

func NewDispatcher(client Enqueuer, encryptionKey string) *Dispatcher {
	return &Dispatcher{
		client:        client,
		encryptionKey: encryptionKey,
	}
}

// Queue holds what the worker handlers need.
type Queue struct {
	pr            repository.PostRepository
	sessions      service.SessionService
	posts         service.PostService
	encryptionKey string
}

func NewQueue(
	pr repository.PostRepository,
	sessions service.SessionService,
	posts service.PostService,
	encryptionKey string) *Queue {
	return &Queue{
		pr:            pr,
		sessions:      sessions,
		posts:         posts,
		encryptionKey: encryptionKey,
	}
}
