package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces live rooms on Redis pub/sub.
const ChannelPrefix = "rt:"

// LiveMessage is the envelope delivered to websocket clients.
type LiveMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// RedisEmitter publishes live events to Redis so every API instance can
// forward them to its connected websocket clients.
type RedisEmitter struct {
	rdb redis.UniversalClient
}

func NewRedisEmitter(rdb redis.UniversalClient) *RedisEmitter { return &RedisEmitter{rdb: rdb} }

// Emit publishes {event, payload} on the room's channel.
func (e *RedisEmitter) Emit(ctx context.Context, room, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode live payload: %w", err)
	}
	body, err := json.Marshal(LiveMessage{Event: event, Payload: raw})
	if err != nil {
		return err
	}
	return e.rdb.Publish(ctx, ChannelPrefix+room, body).Err()
}

// NopEmitter drops live events.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, string, any) error { return nil }
