// Package metrics translates client-core events into StatsD metrics.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/idnremote/idnremote-go/internal/core"
	obserrors "github.com/idnremote/idnremote-go/internal/observability/errors"
	"github.com/idnremote/idnremote-go/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// CacheRecorder counts ExpiringCache outcomes as cache.<event>, tagged by key family.
type CacheRecorder struct {
	Sink statsd.Sink
}

var _ core.CacheRecorder = CacheRecorder{}

// RecordCache implements core.CacheRecorder.
func (r CacheRecorder) RecordCache(event core.CacheEvent, key string) {
	if r.Sink == nil {
		return
	}
	r.Sink.Count("cache."+string(event), 1, map[string]string{"family": KeyFamily(key)})
}

// KeyFamily is the part of a cache key before its first underscore ("jobs", "job", "tags").
// Keys embed URLs and ids, so the full key is never used as a tag.
func KeyFamily(key string) string {
	family, _, found := strings.Cut(key, "_")
	if !found || family == "" {
		return "other"
	}
	return family
}

// RequestRecorder emits backend.request counts and timings.
type RequestRecorder struct {
	Sink statsd.Sink
}

// RecordRequest tags by operation and outcome. status is 0 when no response arrived.
func (r RequestRecorder) RecordRequest(operation string, status int, d time.Duration, err error) {
	if r.Sink == nil {
		return
	}
	tags := map[string]string{
		"operation": operation,
		"result":    ResultSuccess,
	}
	if status > 0 {
		tags["status"] = strconv.Itoa(status)
	}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	r.Sink.Count("backend.request", 1, tags)
	if d > 0 {
		r.Sink.Timing("backend.request.duration", d, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
