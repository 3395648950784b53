// Package backend is the typed client for the job-listing REST API.
// Listing reads go through the ExpiringCache; profile calls always hit the network.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/idnremote/idnremote-go/internal/core"
	"github.com/idnremote/idnremote-go/internal/domain/model"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
)

// DefaultCacheTTL is how long listing, job and tag reads are memoized.
const DefaultCacheTTL = 120 * time.Second

// maxErrorBody bounds how much of a failed response is drained.
const maxErrorBody = 64 << 10

// RequestRecorder observes every network call. status is 0 when no response arrived.
type RequestRecorder interface {
	RecordRequest(operation string, status int, d time.Duration, err error)
}

// Options bundles dependencies for NewClient.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      *core.ExpiringCache
	CacheTTL   time.Duration
	Recorder   RequestRecorder
	Logger     *slog.Logger
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    *core.ExpiringCache
	ttl      time.Duration
	recorder RequestRecorder
	logger   *slog.Logger
	group    singleflight.Group
}

// NewClient creates a Client. BaseURL must be an absolute http(s) URL.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.ValidationField("base_url", "backend base URL must be an absolute http(s) URL")
	}

	c := &Client{
		baseURL:  base,
		http:     opts.HTTPClient,
		cache:    opts.Cache,
		ttl:      opts.CacheTTL,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.ttl <= 0 {
		c.ttl = DefaultCacheTTL
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("component", "backend_client")
	return c, nil
}

// JobsURL is the listing endpoint for q. Its exact form doubles as the cache key.
func (c *Client) JobsURL(q model.JobQuery) string {
	params := url.Values{}
	if q.Query != "" {
		params.Set("query", q.Query)
	}
	return c.baseURL + "/?" + params.Encode()
}

// ListJobs returns the job listing for q.
func (c *Client) ListJobs(ctx context.Context, q model.JobQuery) ([]model.Job, error) {
	endpoint := c.JobsURL(q)
	jobs, err := cachedRead(ctx, c, "list_jobs", "jobs_"+endpoint, endpoint, model.CloneJobs)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// GetJob returns a single vacancy.
func (c *Client) GetJob(ctx context.Context, id string) (*model.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ValidationField("id", "job id is required")
	}
	endpoint := c.baseURL + "/vacancy/" + url.PathEscape(id)
	job, err := cachedRead(ctx, c, "get_job", "job_"+id, endpoint, model.Job.Clone)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

// ListTags returns every selectable tag.
func (c *Client) ListTags(ctx context.Context) ([]model.Tag, error) {
	endpoint := c.baseURL + "/tags"
	tags, err := cachedRead(ctx, c, "list_tags", "tags_"+endpoint, endpoint, slices.Clone[[]model.Tag])
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// GetUserProfile fetches the profile for accessToken. It returns nil, nil when the
// backend answers ok without data, meaning no profile exists yet.
func (c *Client) GetUserProfile(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, apperrors.Unauthenticated("access token is required")
	}

	var user model.User
	res, err := c.do(ctx, call{
		op:     "get_profile",
		method: http.MethodGet,
		url:    c.baseURL + "/profile",
		token:  accessToken,
		out:    &user,
	})
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !res.found {
		return nil, nil
	}
	return &user, nil
}

// SaveUserProfile writes the profile. The envelope ok flag is the only success signal.
func (c *Client) SaveUserProfile(ctx context.Context, accessToken string, in model.SaveProfileInput) error {
	if accessToken == "" {
		return apperrors.Unauthenticated("access token is required")
	}
	if in.PreferencesTags == nil {
		in.PreferencesTags = []string{}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if _, err := c.do(ctx, call{
		op:     "save_profile",
		method: http.MethodPost,
		url:    c.baseURL + "/profile",
		token:  accessToken,
		body:   body,
	}); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// cachedRead serves key from the cache or fetches endpoint once for all concurrent callers.
// Each caller still honors its own ctx while waiting. A fetch shared by several callers is
// handed to each through clone, so no two callers hold the same backing arrays; cache hits
// decode fresh values and need no copy.
func cachedRead[T any](ctx context.Context, c *Client, op, key, endpoint string, clone func(T) T) (T, error) {
	var zero T
	if c.cache != nil {
		if v, ok := core.Lookup[T](ctx, c.cache, key); ok {
			return v, nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		var out T
		res, err := c.do(fetchCtx, call{op: op, method: http.MethodGet, url: endpoint, out: &out})
		if err != nil {
			return nil, err
		}
		if !res.found {
			// ok=true without data violates the read contract.
			return nil, apperrors.Envelope(res.msg)
		}
		if c.cache != nil {
			c.cache.Set(fetchCtx, key, out, c.ttl)
		}
		return out, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, apperrors.Internal("unexpected shared result type")
		}
		if res.Shared {
			return clone(v), nil
		}
		return v, nil
	case <-ctx.Done():
		return zero, contextError(ctx.Err())
	}
}

type call struct {
	op     string
	method string
	url    string
	token  string
	body   []byte
	out    any
}

type result struct {
	found bool
	msg   string
}

// do performs one request and unwraps the envelope. An ok envelope without data is not
// an error here; result.found is false and result.msg carries the backend message.
func (c *Client) do(ctx context.Context, in call) (res result, err error) {
	status := 0
	start := time.Now()
	if c.recorder != nil {
		defer func() { c.recorder.RecordRequest(in.op, status, time.Since(start), err) }()
	}

	var body io.Reader
	if in.body != nil {
		body = bytes.NewReader(in.body)
	}
	req, err := http.NewRequestWithContext(ctx, in.method, in.url, body)
	if err != nil {
		return result{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.token != "" {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result{}, contextError(ctxErr)
		}
		c.logger.WarnContext(ctx, "backend request failed", "method", in.method, "url", in.url, "error", err)
		return result{}, apperrors.TransportCause(err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	c.logger.DebugContext(ctx, "backend response",
		"method", in.method, "url", in.url, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		c.logger.WarnContext(ctx, "backend non-2xx", "method", in.method, "url", in.url, "status", resp.StatusCode)
		return result{}, apperrors.Transport(resp.StatusCode)
	}

	var env model.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return result{}, &apperrors.AppError{
			Code:    apperrors.ErrCodeEnvelope,
			Message: "malformed response envelope",
			Cause:   err,
		}
	}
	if !env.OK {
		return result{}, apperrors.Envelope(env.Error)
	}
	if !env.HasData() {
		return result{msg: env.Msg}, nil
	}
	if in.out != nil {
		if err := json.Unmarshal(env.Data, in.out); err != nil {
			return result{}, &apperrors.AppError{
				Code:    apperrors.ErrCodeEnvelope,
				Message: "unexpected data shape",
				Cause:   err,
			}
		}
	}
	return result{found: true}, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "backend request timed out")
	}
	return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "backend request canceled")
}
