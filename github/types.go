package github

import (
	"time"

	githubql "github.com/shurcooL/githubv4"
)

type User struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Assignees []User    `json:"assignees"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User User   `json:"user"`
}

type Label struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PageInfo struct {
	EndCursor   githubql.String
	HasNextPage bool
}

type IssueNode struct {
	Number    githubql.Int
	Title     githubql.String
	Body      githubql.String
	CreatedAt githubql.DateTime
}

type ListIssuesQuery struct {
	Repository struct {
		Issues struct {
			Nodes    []IssueNode
			PageInfo PageInfo
		} `graphql:"issues(first: $total, after: $cursor, orderBy: {field: CREATED_AT, direction: ASC})"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type createCommentRequest struct {
	Body string `json:"body"`
}

type addLabelsRequest struct {
	Labels []string `json:"labels"`
}
