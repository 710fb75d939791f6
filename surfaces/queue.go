package surfaces

import (
	"fmt"
	"github.com/adjust/rmq/v3"
	"github.com/go-redis/redis/v7"
	"github.com/kcz17/clockface/face"
	"log"
)

const queueConnectionTag = "clockface"

// QueueSurface pushes every published face state onto an rmq queue, so that
// consumers receive each tick exactly once even while they are restarting.
type QueueSurface struct {
	queue rmq.Queue
}

func NewQueueSurface(addr string, password string, db int, name string) (*QueueSurface, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Create a goroutine for reading and logging background queue errors.
	errorsCh := make(chan error, 10)
	go func() {
		for err := range errorsCh {
			log.Printf("rmq background error: %v\n", err)
		}
	}()

	connection, err := rmq.OpenConnectionWithRedisClient(queueConnectionTag, client, errorsCh)
	if err != nil {
		return nil, fmt.Errorf("could not open rmq connection to %s: %w", addr, err)
	}
	queue, err := connection.OpenQueue(name)
	if err != nil {
		return nil, fmt.Errorf("could not open rmq queue %s: %w", name, err)
	}

	return &QueueSurface{queue: queue}, nil
}

func (s *QueueSurface) Publish(state face.State) error {
	message, err := NewPayload(state).Marshal()
	if err != nil {
		return fmt.Errorf("could not marshal payload: %w", err)
	}
	if err := s.queue.PublishBytes(message); err != nil {
		return fmt.Errorf("QueueSurface.Publish(): %w", err)
	}
	return nil
}
