package mention

import (
	"regexp"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	cveRegexp  = regexp.MustCompile(`(?i)CVE-\d{4}-\d+`)
	ghsaRegexp = regexp.MustCompile(`(?i)GHSA-\w{4}-\w{4}-\w{4}`)
)

// ID is a vulnerability identifier such as CVE-2022-38147 or GHSA-vv3r-fxqp-vr3f
type ID = string

// Set is an unordered collection of unique identifiers
type Set map[ID]struct{}

func NewSet(ids ...ID) Set {
	s := Set{}
	s.Add(ids...)
	return s
}

func (s Set) Add(ids ...ID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of other to s
func (s Set) Union(other Set) Set {
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}

// Sorted returns the members in lexical order
func (s Set) Sorted() []ID {
	ids := maps.Keys(s)
	slices.Sort(ids)
	return ids
}

// ScanCVE returns every CVE identifier in text, upper-cased, in order of appearance
func ScanCVE(text string) []ID {
	matches := cveRegexp.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.ToUpper(m)
	}
	return matches
}

// ScanGHSA returns every GitHub Security Advisory identifier in text, as written
func ScanGHSA(text string) []ID {
	return ghsaRegexp.FindAllString(text, -1)
}

// CVEs collects the CVE identifiers of all fields
func CVEs(fields []string) Set {
	s := Set{}
	for _, f := range fields {
		s.Add(ScanCVE(f)...)
	}
	return s
}

// GHSAs collects the advisory identifiers of all fields. Mixed-case
// spellings of one advisory collapse into a single entry.
func GHSAs(fields []string) Set {
	s := Set{}
	for _, f := range fields {
		for _, id := range ScanGHSA(f) {
			s.Add(normalizeGHSA(id))
		}
	}
	return s
}

// GitHub prints advisory ids as GHSA-xxxx-xxxx-xxxx with a lower-case body
func normalizeGHSA(id ID) ID {
	return "GHSA" + strings.ToLower(id[len("GHSA"):])
}
