package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)
	c := NewFixed(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, int64(1_700_000_000_000), UnixMilli(c))

	c.Add(2 * time.Minute)
	assert.Equal(t, int64(1_700_000_120_000), UnixMilli(c))

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestReal(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	assert.False(t, got.Before(before))
}
