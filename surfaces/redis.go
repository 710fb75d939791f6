package surfaces

import (
	"fmt"
	"github.com/go-redis/redis/v7"
	"github.com/kcz17/clockface/face"
)

// RedisSurface stores the latest face state in a Redis hash and announces
// each publish on a pub/sub channel, for renderers running elsewhere.
type RedisSurface struct {
	client  *redis.Client
	key     string
	channel string
}

func NewRedisSurface(addr string, password string, db int, key string, channel string) *RedisSurface {
	return &RedisSurface{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		key:     key,
		channel: channel,
	}
}

func (s *RedisSurface) Publish(state face.State) error {
	payload := NewPayload(state)
	message, err := payload.Marshal()
	if err != nil {
		return fmt.Errorf("could not marshal payload: %w", err)
	}

	// The hash and the announcement are written atomically so a subscriber
	// reading the hash on notification never sees an older state.
	pipe := s.client.TxPipeline()
	pipe.HSet(s.key, payload.Fields())
	pipe.Publish(s.channel, message)
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("RedisSurface.Publish() to key %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSurface) Close() error {
	return s.client.Close()
}
