package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{Host: "10.0.0.1"}
	assert.Equal(t, "10.0.0.1:22", c.addr())
	assert.Equal(t, 30*time.Second, c.timeout())

	c.Port = 2222
	c.Timeout = time.Second
	assert.Equal(t, "10.0.0.1:2222", c.addr())
	assert.Equal(t, time.Second, c.timeout())
}

func TestRetry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, "test", func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 1, "test", func() error {
		calls++
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, 5, "test", func() error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
}
