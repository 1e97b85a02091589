package comment

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/github"
	"github.com/aquasecurity/vuln-issue-scanner/issue"
)

const separator = "\n---\n"

type Tracker interface {
	ListComments(ctx context.Context, owner, repo string, number int) ([]github.Comment, error)
	AddComment(ctx context.Context, owner, repo string, number int, body string) (github.Comment, error)
}

// Bot is the account automated comments are posted with
type Bot struct {
	Login string
	Type  string
}

func (b Bot) Authored(c github.Comment) bool {
	return c.User.Login == b.Login && c.User.Type == b.Type
}

// Candidate is a rendered notice about one vulnerability
type Candidate struct {
	ID   string
	Body string
}

func includesText(text string) func(github.Comment) bool {
	return func(c github.Comment) bool {
		return strings.Contains(c.Body, text)
	}
}

// Unmentioned returns the candidates whose identifier appears in none of the
// comments bot has already posted. Comments by anyone else are ignored.
func Unmentioned(comments []github.Comment, bot Bot, candidates []Candidate) []Candidate {
	botComments := lo.Filter(comments, func(c github.Comment, _ int) bool {
		return bot.Authored(c)
	})
	return lo.Filter(candidates, func(c Candidate, _ int) bool {
		return !lo.ContainsBy(botComments, includesText(c.ID))
	})
}

// Join renders the candidates as one comment body
func Join(candidates []Candidate) string {
	return strings.Join(lo.Map(candidates, func(c Candidate, _ int) string {
		return c.Body
	}), separator)
}

// Guard decides what still has to be posted on one issue. It reads the
// comment history once, so notices posted during this run do not suppress
// each other.
type Guard struct {
	tracker  Tracker
	issue    *issue.Issue
	bot      Bot
	history  []github.Comment
	readable bool
}

func NewGuard(ctx context.Context, tracker Tracker, i *issue.Issue, bot Bot) Guard {
	g := Guard{tracker: tracker, issue: i, bot: bot}
	comments, err := tracker.ListComments(ctx, i.Owner, i.Repo, i.Number)
	if err != nil {
		zap.S().Warnf("Could not list comments of %s, not commenting: %s", i, err)
		return g
	}
	g.history, g.readable = comments, true
	return g
}

// CreateIfNeeded posts one comment holding every candidate not yet
// communicated. Nothing is posted when the history could not be read, so a
// flaky read never produces a duplicate notice.
func (g Guard) CreateIfNeeded(ctx context.Context, candidates []Candidate) (*github.Comment, error) {
	if !g.readable {
		return nil, nil
	}

	unmentioned := Unmentioned(g.history, g.bot, candidates)
	if len(unmentioned) == 0 {
		zap.S().Debugf("Every notice was already posted on %s", g.issue)
		return nil, nil
	}

	i := g.issue
	posted, err := g.tracker.AddComment(ctx, i.Owner, i.Repo, i.Number, Join(unmentioned))
	if err != nil {
		return nil, xerrors.Errorf("failed to add comment: %w", err)
	}
	return &posted, nil
}

// CreateIfNeeded reads the history of i and posts what it still lacks
func CreateIfNeeded(ctx context.Context, tracker Tracker, i *issue.Issue, bot Bot, candidates []Candidate) (*github.Comment, error) {
	return NewGuard(ctx, tracker, i, bot).CreateIfNeeded(ctx, candidates)
}
