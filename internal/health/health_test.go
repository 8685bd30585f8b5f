package health

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCheckBasic_InMemory(t *testing.T) {
	status := NewHealthChecker(nil, nil).CheckBasic(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "in-memory", status.Database.Status)
	assert.Equal(t, "disabled", status.Redis.Status)
}

func TestCheckBasic_UnreachableRedisDegrades(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	status := NewHealthChecker(nil, client).CheckBasic(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "unhealthy", status.Redis.Status)
}
