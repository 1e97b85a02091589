package issue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/github"
	"github.com/aquasecurity/vuln-issue-scanner/utils"
)

// ErrIssueNotFound means the trigger context does not name an issue to scan
var ErrIssueNotFound = xerrors.New("could not find current issue")

// Issue identifies one issue of one repository. Data stays nil until the
// issue has been fetched.
type Issue struct {
	Owner  string
	Repo   string
	Number int
	Data   *github.Issue
}

func (i Issue) String() string {
	return fmt.Sprintf("%s/%s#%d", i.Owner, i.Repo, i.Number)
}

func (i Issue) HasAssignees() bool {
	return i.Data != nil && len(i.Data.Assignees) > 0
}

// SearchableText returns the non-blank fields that may mention vulnerabilities
func (i Issue) SearchableText() []string {
	if i.Data == nil {
		return nil
	}
	var fields []string
	for _, f := range []string{i.Data.Title, i.Data.Body} {
		if strings.TrimSpace(f) != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

type Owner struct {
	Login string `json:"login"`
}

type Repository struct {
	Name  string `json:"name"`
	Owner Owner  `json:"owner"`
}

type Numbered struct {
	Number int `json:"number"`
}

// Event is the part of a GitHub webhook payload that locates an issue
type Event struct {
	Repository  *Repository `json:"repository"`
	Issue       *Numbered   `json:"issue"`
	PullRequest *Numbered   `json:"pull_request"`
}

// WithRepository fills a missing repository from an "owner/name" string
// such as $GITHUB_REPOSITORY
func (e Event) WithRepository(fullName string) Event {
	if e.Repository != nil {
		return e
	}
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return e
	}
	e.Repository = &Repository{Name: name, Owner: Owner{Login: owner}}
	return e
}

// LoadEvent reads the event payload the runner stored at path
func LoadEvent(appFs afero.Fs, path string) (Event, error) {
	var event Event
	if path == "" {
		return event, nil
	}
	if err := utils.NewFs(appFs).ReadJSON(path, &event); err != nil {
		return Event{}, xerrors.Errorf("failed to load event payload: %w", err)
	}
	return event, nil
}

// FindCurrentIssue locates the issue to scan. A non-empty issueNumber takes
// precedence over the issue or pull request the event refers to.
func FindCurrentIssue(event Event, issueNumber string) (*Issue, error) {
	if event.Repository == nil || event.Repository.Name == "" || event.Repository.Owner.Login == "" {
		return nil, ErrIssueNotFound
	}

	number, err := findIssueNumber(event, issueNumber)
	if err != nil {
		return nil, err
	}

	return &Issue{
		Owner:  event.Repository.Owner.Login,
		Repo:   event.Repository.Name,
		Number: number,
	}, nil
}

func findIssueNumber(event Event, issueNumber string) (int, error) {
	if issueNumber = strings.TrimSpace(issueNumber); issueNumber != "" {
		n, err := strconv.Atoi(issueNumber)
		if err != nil || n <= 0 {
			return 0, xerrors.Errorf("invalid issue number %q: %w", issueNumber, ErrIssueNotFound)
		}
		return n, nil
	}
	if event.Issue != nil && event.Issue.Number > 0 {
		return event.Issue.Number, nil
	}
	if event.PullRequest != nil && event.PullRequest.Number > 0 {
		return event.PullRequest.Number, nil
	}
	return 0, ErrIssueNotFound
}
