package tidelift

import (
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
)

// Vulnerability is what Tidelift knows about one CVE. Recommendation is nil
// when the maintainers have not given any guidance yet.
type Vulnerability struct {
	ID             string
	Description    string
	Severity       float64
	Recommendation *Recommendation
}

// Recommendation is maintainer-supplied guidance on the real-world impact of
// a vulnerability for one project
type Recommendation struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	ImpactScore       float64
	ImpactDescription string

	RealIssue           bool
	FalsePositiveReason string

	OtherConditions            bool
	OtherConditionsDescription string

	WorkaroundAvailable   bool
	WorkaroundDescription string

	SpecificMethodsAffected    bool
	SpecificMethodsDescription string
}

// https://api.tidelift.com/docs/ vulnerabilities endpoint
type vulnerabilityResponse struct {
	Description                string   `json:"description"`
	Severity                   float64  `json:"severity"`
	RecommendationCreatedAt    string   `json:"recommendation_created_at"`
	RecommendationUpdatedAt    string   `json:"recommendation_updated_at"`
	ImpactScore                *float64 `json:"impact_score"`
	ImpactDescription          string   `json:"impact_description"`
	OtherConditions            bool     `json:"other_conditions"`
	OtherConditionsDescription string   `json:"other_conditions_description"`
	WorkaroundAvailable        bool     `json:"workaround_available"`
	WorkaroundDescription      string   `json:"workaround_description"`
	SpecificMethodsAffected    bool     `json:"specific_methods_affected"`
	SpecificMethodsDescription string   `json:"specific_methods_description"`
	RealIssue                  *bool    `json:"real_issue"`
	FalsePositiveReason        string   `json:"false_positive_reason"`
}

func (r vulnerabilityResponse) hasRecommendation() bool {
	return r.RecommendationCreatedAt != "" || r.ImpactScore != nil || r.RealIssue != nil
}

func (r vulnerabilityResponse) toVulnerability(id string) Vulnerability {
	v := Vulnerability{
		ID:          id,
		Description: r.Description,
		Severity:    r.Severity,
	}
	if !r.hasRecommendation() {
		return v
	}

	rec := &Recommendation{
		CreatedAt:                  parseTime(r.RecommendationCreatedAt),
		UpdatedAt:                  parseTime(r.RecommendationUpdatedAt),
		ImpactDescription:          r.ImpactDescription,
		FalsePositiveReason:        r.FalsePositiveReason,
		OtherConditions:            r.OtherConditions,
		OtherConditionsDescription: r.OtherConditionsDescription,
		WorkaroundAvailable:        r.WorkaroundAvailable,
		WorkaroundDescription:      r.WorkaroundDescription,
		SpecificMethodsAffected:    r.SpecificMethodsAffected,
		SpecificMethodsDescription: r.SpecificMethodsDescription,
	}
	if r.ImpactScore != nil {
		rec.ImpactScore = *r.ImpactScore
	}
	if r.RealIssue != nil {
		rec.RealIssue = *r.RealIssue
	}
	v.Recommendation = rec
	return v
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		zap.S().Debugf("unparsable recommendation timestamp %q: %s", s, err)
		return time.Time{}
	}
	return t.UTC()
}
