package config

import (
	"strings"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/utils"
)

// file is the YAML configuration file. Pointers tell "absent" from "false".
//
//	ignore_if_assigned: true
//	disable_labels: false
//	labels:
//	  vulnerability: "vuln: %s"
type file struct {
	IssueNumber            string `yaml:"issue_number"`
	IgnoreIfAssigned       *bool  `yaml:"ignore_if_assigned"`
	DisableRecommendations *bool  `yaml:"disable_recommendations"`
	DisableLabels          *bool  `yaml:"disable_labels"`
	BotLogin               string `yaml:"bot_login"`
	BotType                string `yaml:"bot_type"`
	Concurrency            int    `yaml:"concurrency"`
	Timeout                string `yaml:"timeout"`
	Labels                 struct {
		// Vulnerability may contain %s, which is replaced with the identifier
		Vulnerability     string `yaml:"vulnerability"`
		HasRecommendation string `yaml:"has_recommendation"`
		PossibleDuplicate string `yaml:"possible_duplicate"`
	} `yaml:"labels"`

	timeout time.Duration
}

func readFile(appFs afero.Fs, path string) (file, error) {
	var f file
	if err := utils.NewFs(appFs).ReadYAML(path, &f); err != nil {
		return file{}, xerrors.Errorf("failed to read config file: %w", err)
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return file{}, xerrors.Errorf("invalid timeout %q: %w", f.Timeout, err)
		}
		f.timeout = d
	}
	return f, nil
}

func (f file) apply(c Configuration) Configuration {
	c = c.Merge(Configuration{
		IssueNumber: f.IssueNumber,
		BotLogin:    f.BotLogin,
		BotType:     f.BotType,
		Concurrency: f.Concurrency,
		Timeout:     f.timeout,
		Templates:   f.templates(),
	})
	if f.IgnoreIfAssigned != nil {
		c.IgnoreIfAssigned = *f.IgnoreIfAssigned
	}
	if f.DisableRecommendations != nil {
		c.DisableRecommendations = *f.DisableRecommendations
	}
	if f.DisableLabels != nil {
		c.DisableLabels = *f.DisableLabels
	}
	return c
}

func (f file) templates() Templates {
	var t Templates
	if format := f.Labels.Vulnerability; format != "" {
		t.VulnLabel = func(id string) string {
			if strings.Contains(format, "%s") {
				return strings.ReplaceAll(format, "%s", id)
			}
			return format + id
		}
	}
	if label := f.Labels.HasRecommendation; label != "" {
		t.HasRecommendationLabel = func() string { return label }
	}
	if label := f.Labels.PossibleDuplicate; label != "" {
		t.PossibleDuplicateLabel = func() string { return label }
	}
	return t
}
