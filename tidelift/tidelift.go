package tidelift

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/utils"
)

const (
	baseURL     = "https://api.tidelift.com/external-api/v1"
	concurrency = 5
	retry       = 3
	timeout     = 30 * time.Second
)

type options struct {
	url         string
	concurrency int
	retry       int
	timeout     time.Duration
}

type option func(*options)

func WithURL(url string) option {
	return func(opts *options) {
		opts.url = url
	}
}

func WithConcurrency(concurrency int) option {
	return func(opts *options) {
		opts.concurrency = concurrency
	}
}

func WithRetry(retry int) option {
	return func(opts *options) {
		opts.retry = retry
	}
}

func WithTimeout(timeout time.Duration) option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

type Client struct {
	*options
	apiKey string
}

func NewClient(apiKey string, opts ...option) Client {
	o := &options{
		url:         baseURL,
		concurrency: concurrency,
		retry:       retry,
		timeout:     timeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return Client{
		options: o,
		apiKey:  apiKey,
	}
}

// FetchVulnerability returns nil without an error when Tidelift does not know id
func (c Client) FetchVulnerability(ctx context.Context, id string) (*Vulnerability, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := c.url + "/vulnerabilities/" + url.PathEscape(id)
	status, body, err := utils.FetchURL(u,
		utils.WithHeader("Authorization", "Bearer "+c.apiKey),
		utils.WithRetry(c.retry),
		utils.WithTimeout(c.timeout),
	)
	if err != nil {
		return nil, xerrors.Errorf("failed to fetch %s: %w", id, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	var res vulnerabilityResponse
	if err = json.Unmarshal(body, &res); err != nil {
		return nil, xerrors.Errorf("failed to decode Tidelift response for %s: %w", id, err)
	}
	v := res.toVulnerability(id)
	return &v, nil
}

// FetchVulnerabilities looks ids up concurrently and returns the ones found.
// A failed lookup is logged and leaves the others alone.
func (c Client) FetchVulnerabilities(ctx context.Context, ids []string) []Vulnerability {
	results := make([]*Vulnerability, len(ids))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			v, err := c.FetchVulnerability(ctx, id)
			if err != nil {
				zap.S().Warnf("Tidelift lookup failed: %s", err)
				return nil
			}
			results[i] = v
			return nil
		})
	}
	_ = g.Wait()

	return lo.FilterMap(results, func(v *Vulnerability, _ int) (Vulnerability, bool) {
		if v == nil {
			return Vulnerability{}, false
		}
		return *v, true
	})
}
