package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestRedis wraps an in-process Redis server and a client connected to it
type TestRedis struct {
	Server *miniredis.Miniredis
	Client *redis.Client
}

// NewTestRedis starts miniredis for the duration of the test
func NewTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return &TestRedis{Server: server, Client: client}
}
