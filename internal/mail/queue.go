package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// ErrEmptyQueue is returned by Pop when no task is waiting.
var ErrEmptyQueue = errors.New("mail: queue empty")

// Queue is a durable FIFO over a Redis list. Producers LPUSH serialized
// tasks; the worker RPOPs from the other end. The client handle is
// shared and safe for concurrent callers.
type Queue struct {
	client *redis.Client
	key    string
}

// NewQueue constructs a Queue on an existing Redis client.
func NewQueue(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Push enqueues a task.
func (q *Queue) Push(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode mail task: %w", err)
	}
	return q.PushRaw(ctx, payload)
}

// PushRaw enqueues an already-serialized task. The worker uses this to
// re-enqueue a failed task byte-identical to its pre-attempt form.
func (q *Queue) PushRaw(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push mail task: %w", err)
	}
	return nil
}

// PopRaw dequeues the oldest task. Removal from the list is the
// acknowledgment point; a crash after PopRaw and before a successful
// send loses nothing worse than a duplicate delivery on restart.
func (q *Queue) PopRaw(ctx context.Context) ([]byte, error) {
	payload, err := q.client.RPop(ctx, q.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmptyQueue
		}
		return nil, fmt.Errorf("pop mail task: %w", err)
	}
	return payload, nil
}
