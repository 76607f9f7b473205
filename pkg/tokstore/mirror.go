package tokstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisMirror publishes a best-effort notification for every create, rotate
// and remove (not for purge evictions) to a Redis pub/sub channel. It is
// never consulted for reads and never the
// system of record — the in-memory Store remains authoritative (spec §1:
// "the store is volatile by design"). Deployments that want external
// observers (e.g. a dashboard tailing rotations) can subscribe to the
// channel; nothing downstream of the publish affects store correctness.
type RedisMirror struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

// NewRedisMirror dials addr and returns a mirror publishing to channel.
func NewRedisMirror(addr, password string, db int, channel string) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisMirror{client: client, channel: channel, timeout: 2 * time.Second}, nil
}

// Publish sends "op fingerprint" to the mirror's channel. Failures are
// swallowed: a mirror outage must never affect token operations.
func (m *RedisMirror) Publish(op string, rawToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	_ = m.client.Publish(ctx, m.channel, op+" "+fingerprint(rawToken)).Err()
}

// Close releases the underlying Redis connection.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
