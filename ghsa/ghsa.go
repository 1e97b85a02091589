package ghsa

import (
	"context"
	"strings"
	"sync"

	githubql "github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/mention"
)

const identifierTypeCVE = "CVE"

type GithubClient interface {
	Query(ctx context.Context, q interface{}, variables map[string]interface{}) error
}

// Resolver translates GitHub Security Advisory ids into CVE ids. Answers are
// remembered, so every advisory is looked up at most once per Resolver.
type Resolver struct {
	client GithubClient

	mu    sync.Mutex
	cache map[mention.ID]mention.ID
}

func NewResolver(client GithubClient) *Resolver {
	return &Resolver{
		client: client,
		cache:  map[mention.ID]mention.ID{},
	}
}

// CVE returns the CVE alias of ghsaID, or "" when the advisory has none
func (r *Resolver) CVE(ctx context.Context, ghsaID mention.ID) (mention.ID, error) {
	r.mu.Lock()
	cve, ok := r.cache[ghsaID]
	r.mu.Unlock()
	if ok {
		return cve, nil
	}

	var q GetAdvisoryQuery
	variables := map[string]interface{}{
		"ghsaId": githubql.String(ghsaID),
	}
	if err := r.client.Query(ctx, &q, variables); err != nil {
		return "", xerrors.Errorf("graphql api error for %s: %w", ghsaID, err)
	}
	if q.SecurityAdvisory != nil {
		cve = strings.ToUpper(q.SecurityAdvisory.CVE())
	}
	if cve == "" {
		zap.S().Debugf("%s has no CVE alias", ghsaID)
	}

	r.mu.Lock()
	r.cache[ghsaID] = cve
	r.mu.Unlock()
	return cve, nil
}

// Resolve maps every advisory in ghsaIDs to its CVE alias. Advisories without
// an alias contribute nothing; a failed lookup is logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, ghsaIDs mention.Set) mention.Set {
	cves := mention.Set{}
	for _, id := range ghsaIDs.Sorted() {
		cve, err := r.CVE(ctx, id)
		if err != nil {
			zap.S().Warnf("failed to resolve %s: %s", id, err)
			continue
		}
		if cve != "" {
			cves.Add(cve)
		}
	}
	return cves
}
