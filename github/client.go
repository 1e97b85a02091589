package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/parnurzeal/gorequest"
	"github.com/shurcooL/graphql"
	githubql "github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/utils"
)

const (
	apiURL          = "https://api.github.com"
	apiVersion      = "2022-11-28"
	retry           = 3
	timeout         = 30 * time.Second
	maxResponseSize = 100
)

type GraphQLClient interface {
	Query(ctx context.Context, q interface{}, variables map[string]interface{}) error
}

type options struct {
	baseURL string
	retry   int
	timeout time.Duration
	graphql GraphQLClient
}

type option func(*options)

// WithBaseURL points the REST calls at another API root, e.g. GitHub Enterprise
func WithBaseURL(url string) option {
	return func(opts *options) {
		opts.baseURL = url
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

func WithGraphQL(client GraphQLClient) option {
	return func(opts *options) {
		opts.graphql = client
	}
}

// Client talks to the GitHub issues API. Reads of single resources and
// writes go through REST; the repository-wide issue listing goes through
// GraphQL, which can order by creation time across all states.
type Client struct {
	*options
	token string
}

func NewClient(token string, opts ...option) Client {
	o := &options{
		baseURL: apiURL,
		retry:   retry,
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.graphql == nil {
		o.graphql = NewGraphQLClient(token)
	}
	return Client{
		options: o,
		token:   token,
	}
}

// NewGraphQLClient returns a githubv4 client authenticated with a static token
func NewGraphQLClient(token string) *githubql.Client {
	src := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), src)
	return githubql.NewClient(httpClient)
}

// GraphQL exposes the underlying GraphQL client, e.g. for advisory lookups
func (c Client) GraphQL() GraphQLClient {
	return c.graphql
}

func (c Client) GetIssue(ctx context.Context, owner, repo string, number int) (Issue, error) {
	var issue Issue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
	if err := c.get(ctx, path, &issue); err != nil {
		return Issue{}, xerrors.Errorf("failed to get issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return issue, nil
}

// ListComments returns every comment on the issue, oldest first
func (c Client) ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	var comments []Comment
	for page := 1; ; page++ {
		var pageComments []Comment
		path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments?per_page=%d&page=%d", owner, repo, number, maxResponseSize, page)
		if err := c.get(ctx, path, &pageComments); err != nil {
			return nil, xerrors.Errorf("failed to list comments of %s/%s#%d: %w", owner, repo, number, err)
		}
		comments = append(comments, pageComments...)
		if len(pageComments) < maxResponseSize {
			break
		}
	}
	return comments, nil
}

// ListIssues returns every issue of the repository in any state, ordered by
// creation time ascending. Pull requests are not included.
func (c Client) ListIssues(ctx context.Context, owner, repo string) ([]Issue, error) {
	var issues []Issue
	variables := map[string]interface{}{
		"owner":  githubql.String(owner),
		"name":   githubql.String(repo),
		"total":  graphql.Int(maxResponseSize),
		"cursor": (*githubql.String)(nil),
	}
	for {
		var q ListIssuesQuery
		if err := c.graphql.Query(ctx, &q, variables); err != nil {
			return nil, xerrors.Errorf("graphql api error: %w", err)
		}

		for _, node := range q.Repository.Issues.Nodes {
			issues = append(issues, Issue{
				Number:    int(node.Number),
				Title:     string(node.Title),
				Body:      string(node.Body),
				CreatedAt: node.CreatedAt.Time,
			})
		}
		if !q.Repository.Issues.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubql.NewString(q.Repository.Issues.PageInfo.EndCursor)
	}
	return issues, nil
}

func (c Client) AddComment(ctx context.Context, owner, repo string, number int, body string) (Comment, error) {
	var comment Comment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, number)
	if err := c.post(ctx, path, createCommentRequest{Body: body}, &comment); err != nil {
		return Comment{}, xerrors.Errorf("failed to comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return comment, nil
}

func (c Client) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]Label, error) {
	var applied []Label
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", owner, repo, number)
	if err := c.post(ctx, path, addLabelsRequest{Labels: labels}, &applied); err != nil {
		return nil, xerrors.Errorf("failed to label %s/%s#%d: %w", owner, repo, number, err)
	}
	return applied, nil
}

func (c Client) get(ctx context.Context, path string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := c.baseURL + path
	status, body, err := utils.FetchURL(url,
		utils.WithHeader("Authorization", "Bearer "+c.token),
		utils.WithHeader("Accept", "application/vnd.github+json"),
		utils.WithHeader("X-GitHub-Api-Version", apiVersion),
		utils.WithRetry(c.retry),
		utils.WithTimeout(c.timeout),
	)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return &utils.StatusError{StatusCode: status, URL: url}
	}
	if err = json.Unmarshal(body, v); err != nil {
		return xerrors.Errorf("failed to decode response of %s: %w", url, err)
	}
	return nil
}

// writes are not retried
func (c Client) post(ctx context.Context, path string, payload, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := c.baseURL + path
	resp, body, errs := gorequest.New().Timeout(c.timeout).Post(url).
		Set("Authorization", "Bearer "+c.token).
		Set("Accept", "application/vnd.github+json").
		Set("X-GitHub-Api-Version", apiVersion).
		Send(payload).
		EndBytes()
	if len(errs) > 0 {
		return xerrors.Errorf("HTTP error. url: %s, err: %w", url, errs[0])
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &utils.StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return xerrors.Errorf("failed to decode response of %s: %w", url, err)
	}
	return nil
}
