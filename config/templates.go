package config

import (
	"fmt"

	"github.com/aquasecurity/vuln-issue-scanner/tidelift"
)

// Templates render the labels and comments the scanner leaves on an issue
type Templates struct {
	VulnLabel                func(id string) string
	HasRecommendationLabel   func() string
	PossibleDuplicateLabel   func() string
	RecommendationComment    func(v tidelift.Vulnerability) string
	PossibleDuplicateComment func(id string, issueNumber int) string
}

func DefaultTemplates() Templates {
	return Templates{
		VulnLabel:                formatVulnerabilityLabel,
		HasRecommendationLabel:   formatHasRecommendationLabel,
		PossibleDuplicateLabel:   formatPossibleDuplicateLabel,
		RecommendationComment:    formatRecommendationComment,
		PossibleDuplicateComment: formatPossibleDuplicateComment,
	}
}

// merge replaces every template that other sets
func (t Templates) merge(other Templates) Templates {
	if other.VulnLabel != nil {
		t.VulnLabel = other.VulnLabel
	}
	if other.HasRecommendationLabel != nil {
		t.HasRecommendationLabel = other.HasRecommendationLabel
	}
	if other.PossibleDuplicateLabel != nil {
		t.PossibleDuplicateLabel = other.PossibleDuplicateLabel
	}
	if other.RecommendationComment != nil {
		t.RecommendationComment = other.RecommendationComment
	}
	if other.PossibleDuplicateComment != nil {
		t.PossibleDuplicateComment = other.PossibleDuplicateComment
	}
	return t
}

func formatVulnerabilityLabel(id string) string {
	return ":yellow_circle: " + id
}

func formatHasRecommendationLabel() string {
	return ":green_circle: has-recommendation"
}

func formatPossibleDuplicateLabel() string {
	return ":large_blue_circle: possible-duplicate"
}

// TODO: add unaffected releases once the Tidelift API returns them
func formatRecommendationComment(v tidelift.Vulnerability) string {
	var rec tidelift.Recommendation
	if v.Recommendation != nil {
		rec = *v.Recommendation
	}
	return fmt.Sprintf(`:wave: It looks like you are talking about *%s*.  The maintainer has provided more information to help you handle this CVE.

> Is this a real issue with this project? *%t*

%s

> How likely are you impacted (out of 10)? *%v*

%s

> Is there a workaround available? *%t*

%s

Data provided by [Tidelift](https://tidelift.com), in partnership with the maintainer of this project`,
		v.ID,
		rec.RealIssue, rec.FalsePositiveReason,
		rec.ImpactScore, rec.ImpactDescription,
		rec.WorkaroundAvailable, rec.WorkaroundDescription,
	)
}

func formatPossibleDuplicateComment(id string, issueNumber int) string {
	return fmt.Sprintf("An issue referencing *%s* was first filed in #%d. If your issue is different from this, please let us know.", id, issueNumber)
}
