package utils

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/parnurzeal/gorequest"
	"golang.org/x/xerrors"
)

const (
	defaultRetry   = 3
	defaultTimeout = 30 * time.Second
)

var initialInterval = 500 * time.Millisecond

// StatusError is returned for a response the caller cannot use
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error. status code: %d, url: %s", e.StatusCode, e.URL)
}

type fetchOptions struct {
	headers map[string]string
	retry   int
	timeout time.Duration
}

type FetchOption func(*fetchOptions)

func WithHeader(key, value string) FetchOption {
	return func(opts *fetchOptions) {
		opts.headers[key] = value
	}
}

func WithRetry(retry int) FetchOption {
	return func(opts *fetchOptions) {
		opts.retry = retry
	}
}

func WithTimeout(timeout time.Duration) FetchOption {
	return func(opts *fetchOptions) {
		opts.timeout = timeout
	}
}

// FetchURL returns the HTTP status code and body of a GET with retry.
// 2xx and 404 responses are handed back as they are; 5xx responses and
// transport errors are retried, other statuses fail immediately.
func FetchURL(url string, opts ...FetchOption) (int, []byte, error) {
	o := &fetchOptions{
		headers: map[string]string{},
		retry:   defaultRetry,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	var (
		status int
		body   []byte
	)
	operation := func() error {
		req := gorequest.New().Timeout(o.timeout).Get(url)
		for k, v := range o.headers {
			req.Set(k, v)
		}
		resp, b, errs := req.EndBytes()
		if len(errs) > 0 {
			return xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300, resp.StatusCode == http.StatusNotFound:
			status, body = resp.StatusCode, b
			return nil
		case resp.StatusCode >= 500:
			return &StatusError{StatusCode: resp.StatusCode, URL: url}
		default:
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, URL: url})
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	if err := backoff.Retry(operation, backoff.WithMaxRetries(bo, uint64(o.retry))); err != nil {
		return 0, nil, xerrors.Errorf("failed to fetch URL: %w", err)
	}
	return status, body, nil
}
