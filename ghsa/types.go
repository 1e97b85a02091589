package ghsa

// https://docs.github.com/en/graphql/reference/objects#securityadvisoryidentifier
type Identifier struct {
	Type  string
	Value string
}

type Advisory struct {
	GhsaId      string
	Identifiers []Identifier
}

type GetAdvisoryQuery struct {
	SecurityAdvisory *Advisory `graphql:"securityAdvisory(ghsaId: $ghsaId)"`
}

// CVE returns the CVE-typed alias of the advisory, if it has one
func (a Advisory) CVE() string {
	for _, id := range a.Identifiers {
		if id.Type == identifierTypeCVE {
			return id.Value
		}
	}
	return ""
}
