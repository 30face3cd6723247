package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Bus carries committed mutation events from the service to every hub that
// should fan them out. The memory backend serves a single process; the redis
// backend bridges instances through pub/sub. Delivery is at-most-once and
// best-effort on both.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// InMemoryBus is a bounded channel-backed bus for dev and single-instance
// deployments.
type InMemoryBus struct {
	ch chan Event
}

// NewInMemoryBus creates a bus with the given buffer size.
func NewInMemoryBus(size int) *InMemoryBus {
	if size <= 0 {
		size = 64
	}
	return &InMemoryBus{ch: make(chan Event, size)}
}

// Publish enqueues an event, dropping it when the buffer is full rather
// than blocking a request.
func (b *InMemoryBus) Publish(ctx context.Context, evt Event) error {
	select {
	case b.ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		log.Printf("realtime: bus full, dropping %s", evt.Name)
		return nil
	}
}

// Subscribe returns the event stream. Only one subscriber is expected.
func (b *InMemoryBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case evt := <-b.ch:
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisBus bridges events across instances via redis pub/sub.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus creates a bus on the named pub/sub channel.
func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = "classtrack:events"
	}
	return &RedisBus{client: client, channel: channel}
}

// Publish sends the event to every subscribed instance.
func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe streams events published by any instance, this one included.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					log.Printf("realtime: bad event payload: %v", err)
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
