package comment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/vuln-issue-scanner/github"
	"github.com/aquasecurity/vuln-issue-scanner/issue"
)

var bot = Bot{Login: "github-actions[bot]", Type: "Bot"}

type fakeTracker struct {
	comments []github.Comment
	listErr  error
	addErr   error
}

func (f *fakeTracker) ListComments(ctx context.Context, owner, repo string, number int) ([]github.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.comments, nil
}

func (f *fakeTracker) AddComment(ctx context.Context, owner, repo string, number int, body string) (github.Comment, error) {
	if f.addErr != nil {
		return github.Comment{}, f.addErr
	}
	c := github.Comment{ID: int64(len(f.comments) + 1), Body: body, User: github.User{Login: bot.Login, Type: bot.Type}}
	f.comments = append(f.comments, c)
	return c, nil
}

func TestBot_Authored(t *testing.T) {
	assert.True(t, bot.Authored(github.Comment{User: github.User{Login: "github-actions[bot]", Type: "Bot"}}))
	assert.False(t, bot.Authored(github.Comment{User: github.User{Login: "github-actions[bot]", Type: "User"}}))
	assert.False(t, bot.Authored(github.Comment{User: github.User{Login: "octocat", Type: "Bot"}}))
}

func TestUnmentioned(t *testing.T) {
	candidates := []Candidate{
		{ID: "CVE-2021-3807", Body: "about CVE-2021-3807"},
		{ID: "CVE-2021-43297", Body: "about CVE-2021-43297"},
	}

	tests := []struct {
		name     string
		comments []github.Comment
		want     []Candidate
	}{
		{
			name: "no comments",
			want: candidates,
		},
		{
			name: "human comments do not suppress",
			comments: []github.Comment{
				{Body: "CVE-2021-3807 again", User: github.User{Login: "octocat", Type: "User"}},
			},
			want: candidates,
		},
		{
			name: "bot comment suppresses only what it mentions",
			comments: []github.Comment{
				{Body: "earlier notice on CVE-2021-3807", User: github.User{Login: "github-actions[bot]", Type: "Bot"}},
			},
			want: candidates[1:],
		},
		{
			name: "everything already posted",
			comments: []github.Comment{
				{Body: "CVE-2021-3807\n---\nCVE-2021-43297", User: github.User{Login: "github-actions[bot]", Type: "Bot"}},
			},
			want: []Candidate{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unmentioned(tt.comments, bot, candidates))
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a\n---\nb", Join([]Candidate{{Body: "a"}, {Body: "b"}}))
	assert.Equal(t, "a", Join([]Candidate{{Body: "a"}}))
}

func TestCreateIfNeeded(t *testing.T) {
	i := &issue.Issue{Owner: "github", Repo: "codeql", Number: 1}
	candidates := []Candidate{{ID: "CVE-2021-3807", Body: "about CVE-2021-3807"}}

	t.Run("posting twice comments once", func(t *testing.T) {
		tracker := &fakeTracker{}

		posted, err := CreateIfNeeded(context.Background(), tracker, i, bot, candidates)
		require.NoError(t, err)
		require.NotNil(t, posted)
		assert.Equal(t, "about CVE-2021-3807", posted.Body)

		posted, err = CreateIfNeeded(context.Background(), tracker, i, bot, candidates)
		require.NoError(t, err)
		assert.Nil(t, posted)
		assert.Len(t, tracker.comments, 1)
	})

	t.Run("unreadable comments skip posting", func(t *testing.T) {
		tracker := &fakeTracker{listErr: errors.New("502")}

		posted, err := CreateIfNeeded(context.Background(), tracker, i, bot, candidates)
		require.NoError(t, err)
		assert.Nil(t, posted)
		assert.Empty(t, tracker.comments)
	})

	t.Run("post failure", func(t *testing.T) {
		tracker := &fakeTracker{addErr: errors.New("403")}

		_, err := CreateIfNeeded(context.Background(), tracker, i, bot, candidates)
		require.Error(t, err)
		assert.Equal(t, "failed to add comment: 403", err.Error())
	})
}

func TestGuard_NoticesDoNotSuppressEachOther(t *testing.T) {
	i := &issue.Issue{Owner: "github", Repo: "codeql", Number: 1}
	tracker := &fakeTracker{}

	g := NewGuard(context.Background(), tracker, i, bot)
	_, err := g.CreateIfNeeded(context.Background(), []Candidate{{ID: "CVE-2021-3807", Body: "recommendation for CVE-2021-3807"}})
	require.NoError(t, err)
	_, err = g.CreateIfNeeded(context.Background(), []Candidate{{ID: "CVE-2021-3807", Body: "CVE-2021-3807 was first filed in #2"}})
	require.NoError(t, err)
	assert.Len(t, tracker.comments, 2)

	// a later run sees both
	g = NewGuard(context.Background(), tracker, i, bot)
	posted, err := g.CreateIfNeeded(context.Background(), []Candidate{{ID: "CVE-2021-3807", Body: "again"}})
	require.NoError(t, err)
	assert.Nil(t, posted)
	assert.Len(t, tracker.comments, 2)
}
