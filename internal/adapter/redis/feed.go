package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nguyendangtritoan/german-note/internal/adapter/docjson"
	"github.com/nguyendangtritoan/german-note/internal/domain"
)

// Feed is the change feed over Redis pub/sub. Every instance publishes its
// persisted mutations to one channel and listens to the others.
type Feed struct {
	log     *slog.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewFeed creates a feed on the given channel.
func NewFeed(logger *slog.Logger, rdb goredis.UniversalClient, channel string) *Feed {
	return &Feed{
		log:     logger.With("service", "redis_feed"),
		rdb:     rdb,
		channel: channel,
	}
}

// Publish sends an event to every subscribed instance.
func (f *Feed) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	raw, err := docjson.MarshalChange(ev)
	if err != nil {
		return err
	}
	if err := f.rdb.Publish(ctx, f.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe forwards events to onEvent until ctx is done. It returns once
// the subscription is confirmed by the server.
func (f *Feed) Subscribe(ctx context.Context, onEvent func(domain.ChangeEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := f.rdb.Subscribe(ctx, f.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				ev, err := docjson.UnmarshalChange([]byte(m.Payload))
				if err != nil {
					f.log.WarnContext(ctx, "bad change payload", slog.String("error", err.Error()))
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}
