package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ago := func(d time.Duration) int64 { return now.Add(-d).Unix() }
	day := 24 * time.Hour

	tests := []struct {
		name string
		ts   int64
		want string
	}{
		{"just now", now.Unix(), "0 seconds ago"},
		{"future", now.Add(time.Minute).Unix(), "0 seconds ago"},
		{"seconds", ago(59 * time.Second), "59 seconds ago"},
		{"one minute", ago(60 * time.Second), "1 minutes ago"},
		{"minutes", ago(59 * time.Minute), "59 minutes ago"},
		{"hours", ago(23 * time.Hour), "23 hours ago"},
		{"days", ago(6 * day), "6 days ago"},
		{"weeks", ago(27 * day), "3 weeks ago"},
		{"four weeks is a month", ago(28 * day), "0 months ago"},
		{"months", ago(200 * day), "6 months ago"},
		{"twelve months floors to zero years", ago(360 * day), "0 years ago"},
		{"one year", ago(365 * day), "1 years ago"},
		{"years", ago(800 * day), "2 years ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanizeTime(tt.ts, now))
		})
	}
}
