package tokstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func TestRedisMirrorPublishesFingerprintNotRawToken(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	mirror, err := NewRedisMirror(s.Addr(), "", 0, "tokserver.events")
	require.NoError(t, err)
	defer mirror.Close()

	sub := redis.NewClient(&redis.Options{Addr: s.Addr()}).Subscribe(context.Background(), "tokserver.events")
	defer sub.Close()
	_, err = sub.Receive(context.Background())
	require.NoError(t, err)

	mirror.Publish("create", "some-raw-token-value")

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)
	require.Contains(t, msg.Payload, "create ")
	require.NotContains(t, msg.Payload, "some-raw-token-value")
}

func TestStoreWithMirrorPublishesOnCreateRotateRemove(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	mirror, err := NewRedisMirror(s.Addr(), "", 0, "tokserver.events")
	require.NoError(t, err)
	defer mirror.Close()

	store := New(time.Hour, WithMirror(mirror))

	sub := redis.NewClient(&redis.Options{Addr: s.Addr()}).Subscribe(context.Background(), "tokserver.events")
	defer sub.Close()
	_, err = sub.Receive(context.Background())
	require.NoError(t, err)

	token, err := store.Create(Meta{"owner": "carol"})
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage(context.Background())
	require.NoError(t, err)
	require.Contains(t, msg.Payload, "create ")

	rotated, err := store.Rotate(token, nil, false)
	require.NoError(t, err)
	msg, err = sub.ReceiveMessage(context.Background())
	require.NoError(t, err)
	require.Contains(t, msg.Payload, "rotate ")

	store.Remove(rotated.Token)
	msg, err = sub.ReceiveMessage(context.Background())
	require.NoError(t, err)
	require.Contains(t, msg.Payload, "remove ")
}
