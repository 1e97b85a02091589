package scanner

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/aquasecurity/vuln-issue-scanner/mention"
	"github.com/aquasecurity/vuln-issue-scanner/tidelift"
)

func NoIssueData(context fmt.Stringer) string {
	return fmt.Sprintf("Could not get issue data for %s", context)
}

func IgnoredAssigned() string {
	return "No action being taken. Ignoring because one or more assignees have been added to the issue"
}

func NoVulnerabilities() string {
	return "Did not find any vulnerabilities mentioned"
}

func Success(vulns mention.Set, recommended []tidelift.Vulnerability) string {
	ids := lo.Map(recommended, func(v tidelift.Vulnerability, _ int) string {
		return v.ID
	})
	return fmt.Sprintf("Detected mentions of: %s\nWith recommendations on: %s",
		strings.Join(vulns.Sorted(), ","), strings.Join(ids, ","))
}
