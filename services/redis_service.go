package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"matchmaking_server/models"
)

// RedisTicketStore keeps one Redis list per rating bucket. The list is the
// only shared mutable state in the pipeline, so every mutation is a single
// Redis command or script call.
type RedisTicketStore struct {
	Client *redis.Client
}

// InitializeRedisClient initializes the Redis client from REDIS_ADDR
func InitializeRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := client.Ping(context.TODO()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", addr, err)
	}
	return client
}

// claimScript removes and returns the oldest N entries of a bucket list in
// one atomic step. It re-checks the length inside the script, so an advisory
// length read that went stale cannot produce a short claim: either a full
// group comes back or the list is untouched.
var claimScript = redis.NewScript(`
local n = tonumber(ARGV[1])
if redis.call('LLEN', KEYS[1]) < n then
  return {}
end
local items = redis.call('LRANGE', KEYS[1], 0, n - 1)
redis.call('LTRIM', KEYS[1], n, -1)
return items
`)

func bucketListKey(bucket int) string {
	return fmt.Sprintf("mm:bucket:%d", bucket)
}

// Append pushes a ticket onto the tail of the bucket's list and returns the
// new length.
func (rs *RedisTicketStore) Append(ctx context.Context, bucket int, ticket models.Ticket) (int64, error) {
	length, err := rs.Client.RPush(ctx, bucketListKey(bucket), ticket).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to append ticket to bucket %d: %w", bucket, err)
	}
	return length, nil
}

// Claim atomically takes the oldest n tickets from the bucket, or nothing.
func (rs *RedisTicketStore) Claim(ctx context.Context, bucket int, n int) ([]models.Ticket, error) {
	key := bucketListKey(bucket)
	raw, err := claimScript.Run(ctx, rs.Client, []string{key}, n).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to claim from bucket %d: %w", bucket, err)
	}
	if len(raw) == 0 {
		return nil, ErrBucketNotReady
	}

	tickets := make([]models.Ticket, 0, len(raw))
	for _, entry := range raw {
		var t models.Ticket
		if err := t.UnmarshalBinary([]byte(entry)); err != nil {
			// A corrupt entry means the claim cannot form a group; push the
			// raw entries back so nothing is lost before reporting it.
			log.Printf("❌ Corrupt ticket entry in bucket %d: %v", bucket, err)
			if requeueErr := rs.requeueRaw(ctx, key, raw); requeueErr != nil {
				return nil, fmt.Errorf("corrupt ticket in bucket %d and requeue failed: %v: %w", bucket, err, requeueErr)
			}
			return nil, fmt.Errorf("corrupt ticket in bucket %d: %w", bucket, err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// Requeue pushes claimed tickets back onto the head of the bucket's list in
// one LPUSH, so the compensation is as atomic as the claim it undoes.
// Passing the group in reverse keeps its internal order at the head; the
// group as a whole still jumps the queue, which is the accepted
// compensation behavior.
func (rs *RedisTicketStore) Requeue(ctx context.Context, bucket int, tickets []models.Ticket) error {
	values := make([]interface{}, 0, len(tickets))
	for i := len(tickets) - 1; i >= 0; i-- {
		values = append(values, tickets[i])
	}
	if err := rs.Client.LPush(ctx, bucketListKey(bucket), values...).Err(); err != nil {
		return fmt.Errorf("failed to requeue %d tickets into bucket %d: %w", len(tickets), bucket, err)
	}
	return nil
}

// Length reports the bucket's current list length.
func (rs *RedisTicketStore) Length(ctx context.Context, bucket int) (int64, error) {
	length, err := rs.Client.LLen(ctx, bucketListKey(bucket)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of bucket %d: %w", bucket, err)
	}
	return length, nil
}

// Buckets lists every bucket that currently has a list key. Used by the
// startup sweep to drain buckets that filled while no worker was running.
func (rs *RedisTicketStore) Buckets(ctx context.Context) ([]int, error) {
	var buckets []int
	iter := rs.Client.Scan(ctx, 0, "mm:bucket:*", 100).Iterator()
	for iter.Next(ctx) {
		var bucket int
		if _, err := fmt.Sscanf(iter.Val(), "mm:bucket:%d", &bucket); err != nil {
			continue
		}
		buckets = append(buckets, bucket)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan bucket keys: %w", err)
	}
	return buckets, nil
}

func (rs *RedisTicketStore) requeueRaw(ctx context.Context, key string, entries []string) error {
	values := make([]interface{}, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		values = append(values, entries[i])
	}
	return rs.Client.LPush(ctx, key, values...).Err()
}
