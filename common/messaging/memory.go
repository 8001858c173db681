package messaging

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var ErrQueueFull = errors.New("in-memory queue is full")

// MemoryQueue is an in-process stand-in for Pub/Sub. Messages are lost when
// the process exits; the job table keeps the state needed to retry them.
type MemoryQueue struct {
	messages chan Message
	sequence uint64
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{messages: make(chan Message, size)}
}

func (q *MemoryQueue) Publish(ctx context.Context, message Message) error {
	message.ID = strconv.FormatUint(atomic.AddUint64(&q.sequence, 1), 10)
	message.PublishTime = time.Now().UTC()
	if message.Attributes == nil {
		message.Attributes = make(map[string]string)
	}
	select {
	case q.messages <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Subscribe blocks and hands every message to callback until ctx is done.
func (q *MemoryQueue) Subscribe(ctx context.Context, callback SubscribeCallbackFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-q.messages:
			callback(ctx, msg)
		}
	}
}
