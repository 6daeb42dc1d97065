package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultClaimInterval = 30 * time.Second
	defaultClaimMinIdle  = time.Minute
)

// RedisStreamBus is an EventBus backed by Redis streams with consumer
// groups. A message is acknowledged only after its handler returns nil, so
// delivery is at-least-once: a handler error or a consumer crash leaves the
// message pending, and it is picked up again either by this consumer's
// startup drain or by the periodic reclaim pass.
type RedisStreamBus struct {
	Client *redis.Client

	// ClaimInterval is how often a subscriber sweeps the group's pending
	// entries; ClaimMinIdle is how long an entry must sit undelivered before
	// the sweep may steal it. Zero values use the defaults.
	ClaimInterval time.Duration
	ClaimMinIdle  time.Duration

	mu  sync.Mutex
	seq map[string]int
}

// Publish appends the JSON-encoded payload to the topic's stream.
func (b *RedisStreamBus) Publish(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for topic %q: %w", topic, err)
	}
	err = b.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{"payload": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to topic %q: %w", topic, err)
	}
	return nil
}

// Subscribe joins the consumer group on the topic's stream and blocks until
// ctx is done. The consumer name is stable across restarts (hostname plus a
// per-group sequence), so the initial "0" read resumes this consumer's own
// pending entries; a periodic XAUTOCLAIM sweep reclaims entries stranded
// under other consumers, including those of dead processes.
func (b *RedisStreamBus) Subscribe(ctx context.Context, topic string, group string, handler func(context.Context, []byte) error) error {
	err := b.Client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %q on topic %q: %w", group, topic, err)
	}

	consumer := b.consumerName(group)
	log.Printf("✅ Subscribed to topic %q as %s", topic, consumer)

	claimInterval := b.ClaimInterval
	if claimInterval == 0 {
		claimInterval = defaultClaimInterval
	}
	minIdle := b.ClaimMinIdle
	if minIdle == 0 {
		minIdle = defaultClaimMinIdle
	}

	// "0" re-reads this consumer's pending entries; ">" waits for new ones.
	cursor := "0"
	var lastClaim time.Time
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Since(lastClaim) >= claimInterval {
			lastClaim = time.Now()
			b.claimStale(ctx, topic, group, consumer, minIdle, handler)
		}

		streams, err := b.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{topic, cursor},
			Count:    16,
			Block:    time.Second,
		}).Result()
		if errors.Is(err, redis.Nil) {
			// No entries for this cursor; an empty pending backlog means the
			// drain is done.
			if cursor == "0" {
				cursor = ">"
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("❌ Failed to read from topic %q: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		delivered := 0
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				delivered++
				b.dispatch(ctx, topic, group, msg, handler)
			}
		}
		if cursor == "0" && delivered == 0 {
			cursor = ">"
		}
	}
}

// dispatch runs the handler and acknowledges the message only on success; a
// failed message stays pending for the reclaim sweep.
func (b *RedisStreamBus) dispatch(ctx context.Context, topic, group string, msg redis.XMessage, handler func(context.Context, []byte) error) {
	payload, _ := msg.Values["payload"].(string)
	if err := handler(ctx, []byte(payload)); err != nil {
		log.Printf("⚠️ Handler for topic %q failed on message %s, leaving pending: %v", topic, msg.ID, err)
		return
	}
	if err := b.Client.XAck(ctx, topic, group, msg.ID).Err(); err != nil {
		log.Printf("⚠️ Failed to ack message %s on topic %q: %v", msg.ID, topic, err)
	}
}

// claimStale walks the group's pending entries and takes over any that have
// sat idle past minIdle, whether they were nacked by this consumer or left
// behind by one that died.
func (b *RedisStreamBus) claimStale(ctx context.Context, topic, group, consumer string, minIdle time.Duration, handler func(context.Context, []byte) error) {
	start := "0-0"
	for {
		msgs, next, err := b.Client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   topic,
			Group:    group,
			Consumer: consumer,
			MinIdle:  minIdle,
			Start:    start,
			Count:    16,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Printf("⚠️ Failed to reclaim pending entries on topic %q: %v", topic, err)
			}
			return
		}
		for _, msg := range msgs {
			b.dispatch(ctx, topic, group, msg, handler)
		}
		if len(msgs) == 0 || next == "0-0" {
			return
		}
		start = next
	}
}

// consumerName builds a name that survives restarts: the same process
// subscribing in the same order lands on the same hostname and sequence, so
// its pending entries are found again by the "0" read.
func (b *RedisStreamBus) consumerName(group string) string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil {
		b.seq = make(map[string]int)
	}
	b.seq[group]++
	return fmt.Sprintf("%s-%s-%d", group, host, b.seq[group])
}
