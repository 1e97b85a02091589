package scanner

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/comment"
	"github.com/aquasecurity/vuln-issue-scanner/config"
	"github.com/aquasecurity/vuln-issue-scanner/github"
	"github.com/aquasecurity/vuln-issue-scanner/issue"
	"github.com/aquasecurity/vuln-issue-scanner/mention"
	"github.com/aquasecurity/vuln-issue-scanner/tidelift"
)

// Mentions maps a vulnerability to the earliest other issue mentioning it
type Mentions map[mention.ID]int

type IssueTracker interface {
	GetIssue(ctx context.Context, owner, repo string, number int) (github.Issue, error)
	ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error)
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) ([]github.Label, error)
	comment.Tracker
}

type AdvisoryResolver interface {
	Resolve(ctx context.Context, ghsaIDs mention.Set) mention.Set
}

type VulnerabilityClient interface {
	FetchVulnerabilities(ctx context.Context, ids []string) []tidelift.Vulnerability
}

type Scanner struct {
	config     config.Configuration
	github     IssueTracker
	advisories AdvisoryResolver
	tidelift   VulnerabilityClient
}

type option func(*Scanner)

func WithAdvisoryResolver(r AdvisoryResolver) option {
	return func(s *Scanner) {
		s.advisories = r
	}
}

func WithVulnerabilityClient(c VulnerabilityClient) option {
	return func(s *Scanner) {
		s.tidelift = c
	}
}

func NewScanner(conf config.Configuration, tracker IssueTracker, opts ...option) Scanner {
	s := Scanner{
		config: conf,
		github: tracker,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Perform scans one issue, labels it and leaves the comments it still lacks.
// The returned status is meant for the automation log.
func (s Scanner) Perform(ctx context.Context, i *issue.Issue) (string, error) {
	data, err := s.github.GetIssue(ctx, i.Owner, i.Repo, i.Number)
	if err != nil {
		zap.S().Debugf("get issue: %s", err)
		return NoIssueData(i), nil
	}
	i.Data = &data

	if s.config.IgnoreIfAssigned && i.HasAssignees() {
		return IgnoredAssigned(), nil
	}

	vulns := s.FindAll(ctx, i.SearchableText())

	var (
		recommendations []tidelift.Vulnerability
		duplicates      Mentions
		g               errgroup.Group
	)
	g.Go(func() error {
		recommendations = s.FindRecommendations(ctx, vulns)
		return nil
	})
	g.Go(func() error {
		duplicates = s.CheckDuplicates(ctx, i, vulns)
		return nil
	})
	_ = g.Wait()

	if len(vulns) == 0 {
		return NoVulnerabilities(), nil
	}

	tmpl := s.config.Templates
	labels := lo.Map(vulns.Sorted(), func(id mention.ID, _ int) string {
		return tmpl.VulnLabel(id)
	})

	recommended := lo.Filter(recommendations, func(v tidelift.Vulnerability, _ int) bool {
		return v.Recommendation != nil
	})
	var guard comment.Guard
	if len(recommended) > 0 || len(duplicates) > 0 {
		bot := comment.Bot{Login: s.config.BotLogin, Type: s.config.BotType}
		guard = comment.NewGuard(ctx, s.github, i, bot)
	}

	if len(recommended) > 0 {
		labels = append(labels, tmpl.HasRecommendationLabel())

		candidates := lo.Map(recommended, func(v tidelift.Vulnerability, _ int) comment.Candidate {
			return comment.Candidate{ID: v.ID, Body: tmpl.RecommendationComment(v)}
		})
		if _, err = guard.CreateIfNeeded(ctx, candidates); err != nil {
			return "", xerrors.Errorf("recommendation comment error: %w", err)
		}
	}

	if len(duplicates) > 0 {
		labels = append(labels, tmpl.PossibleDuplicateLabel())

		candidates := lo.Map(vulns.Sorted(), func(id mention.ID, _ int) comment.Candidate {
			return comment.Candidate{ID: id, Body: tmpl.PossibleDuplicateComment(id, duplicates[id])}
		})
		candidates = lo.Filter(candidates, func(c comment.Candidate, _ int) bool {
			_, ok := duplicates[c.ID]
			return ok
		})
		if _, err = guard.CreateIfNeeded(ctx, candidates); err != nil {
			return "", xerrors.Errorf("duplicate comment error: %w", err)
		}
	}

	if s.config.DisableLabels {
		zap.S().Infof("Labels disabled, not applying %v", labels)
	} else if _, err = s.github.AddLabels(ctx, i.Owner, i.Repo, i.Number, labels); err != nil {
		return "", xerrors.Errorf("failed to add labels: %w", err)
	}

	return Success(vulns, recommended), nil
}

// FindAll returns the CVEs the fields mention directly or through an advisory
func (s Scanner) FindAll(ctx context.Context, fields []string) mention.Set {
	return s.FindCVEs(fields).Union(s.FindGHSAs(ctx, fields))
}

func (s Scanner) FindCVEs(fields []string) mention.Set {
	return mention.CVEs(fields)
}

// FindGHSAs returns the CVE aliases of the advisories the fields mention
func (s Scanner) FindGHSAs(ctx context.Context, fields []string) mention.Set {
	if s.advisories == nil {
		zap.S().Info("No github client for advisory lookup")
		return mention.Set{}
	}
	ghsas := mention.GHSAs(fields)
	if len(ghsas) == 0 {
		return mention.Set{}
	}
	return s.advisories.Resolve(ctx, ghsas)
}

func (s Scanner) FindRecommendations(ctx context.Context, vulns mention.Set) []tidelift.Vulnerability {
	if s.config.DisableRecommendations {
		zap.S().Info("Recommendations disabled")
		return []tidelift.Vulnerability{}
	}
	if s.tidelift == nil {
		zap.S().Info("No Tidelift client for lookup")
		return []tidelift.Vulnerability{}
	}
	if len(vulns) == 0 {
		return []tidelift.Vulnerability{}
	}
	return s.tidelift.FetchVulnerabilities(ctx, vulns.Sorted())
}

// CheckDuplicates finds, for every vulnerability, the earliest created other
// issue of the repository whose title or body mentions it. Issues are scanned
// one by one in creation order so the first mention is deterministic.
func (s Scanner) CheckDuplicates(ctx context.Context, i *issue.Issue, vulns mention.Set) Mentions {
	mentions := Mentions{}
	if len(vulns) == 0 {
		return mentions
	}

	issues, err := s.github.ListIssues(ctx, i.Owner, i.Repo)
	if err != nil {
		zap.S().Warnf("Could not check other issues on repository: %s", err)
		return mentions
	}

	for _, other := range issues {
		if other.Number == i.Number {
			continue
		}
		found := s.FindAll(ctx, []string{other.Title, other.Body})
		for id := range vulns {
			if _, ok := mentions[id]; ok {
				continue
			}
			if found.Has(id) {
				mentions[id] = other.Number
			}
		}
		if len(mentions) == len(vulns) {
			break
		}
	}
	return mentions
}
