package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/utils"
)

const (
	defaultBotLogin    = "github-actions[bot]"
	defaultBotType     = "Bot"
	defaultConcurrency = 5
	defaultTimeout     = 30 * time.Second
)

// Configuration holds every option of one scan. The zero value of a field
// means "not set" when one Configuration is merged over another.
type Configuration struct {
	// IssueNumber overrides the issue named by the trigger event
	IssueNumber string

	GithubToken    string
	TideliftAPIKey string

	IgnoreIfAssigned       bool
	DisableRecommendations bool
	DisableLabels          bool

	// BotLogin and BotType identify the comments this scanner posted earlier
	BotLogin string
	BotType  string

	Concurrency int
	Timeout     time.Duration

	Templates Templates
}

// Defaults reads the GitHub Action inputs, falling back to the GITHUB_TOKEN
// and TIDELIFT_API_KEY environment variables
func Defaults(lookup utils.Lookup) Configuration {
	env := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	return Configuration{
		IssueNumber:            utils.Input(lookup, "issue-number"),
		GithubToken:            utils.FirstNonEmpty(utils.Input(lookup, "repo-token"), env("GITHUB_TOKEN")),
		TideliftAPIKey:         utils.FirstNonEmpty(utils.Input(lookup, "tidelift-api-key"), env("TIDELIFT_API_KEY")),
		IgnoreIfAssigned:       utils.IsTruthy(utils.Input(lookup, "ignore-if-assigned")),
		DisableRecommendations: utils.IsTruthy(utils.Input(lookup, "disable-recommendations")),
		DisableLabels:          utils.IsTruthy(utils.Input(lookup, "disable-labels")),
		BotLogin:               defaultBotLogin,
		BotType:                defaultBotType,
		Concurrency:            defaultConcurrency,
		Timeout:                defaultTimeout,
		Templates:              DefaultTemplates(),
	}
}

// Merge returns c with every field that is set in overrides replaced
func (c Configuration) Merge(overrides Configuration) Configuration {
	if overrides.IssueNumber != "" {
		c.IssueNumber = overrides.IssueNumber
	}
	if overrides.GithubToken != "" {
		c.GithubToken = overrides.GithubToken
	}
	if overrides.TideliftAPIKey != "" {
		c.TideliftAPIKey = overrides.TideliftAPIKey
	}
	if overrides.IgnoreIfAssigned {
		c.IgnoreIfAssigned = true
	}
	if overrides.DisableRecommendations {
		c.DisableRecommendations = true
	}
	if overrides.DisableLabels {
		c.DisableLabels = true
	}
	if overrides.BotLogin != "" {
		c.BotLogin = overrides.BotLogin
	}
	if overrides.BotType != "" {
		c.BotType = overrides.BotType
	}
	if overrides.Concurrency > 0 {
		c.Concurrency = overrides.Concurrency
	}
	if overrides.Timeout > 0 {
		c.Timeout = overrides.Timeout
	}
	c.Templates = c.Templates.merge(overrides.Templates)
	return c
}

func (c Configuration) Validate() error {
	if c.GithubToken == "" {
		return xerrors.New("could not initialize github client from env")
	}
	return nil
}

// New builds the configuration from the process environment and overrides
func New(overrides Configuration) (Configuration, error) {
	return Load(os.LookupEnv, afero.NewOsFs(), "", overrides)
}

// Load layers, from lowest to highest precedence: defaults, the YAML file at
// path (when path is not empty), overrides
func Load(lookup utils.Lookup, appFs afero.Fs, path string, overrides Configuration) (Configuration, error) {
	c := Defaults(lookup)
	if path != "" {
		f, err := readFile(appFs, path)
		if err != nil {
			return Configuration{}, err
		}
		c = f.apply(c)
	}
	c = c.Merge(overrides)

	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

func (c Configuration) RecommendationsEnabled() bool {
	return !c.DisableRecommendations && c.TideliftAPIKey != ""
}

func (c Configuration) String() string {
	return fmt.Sprintf("issue-number=%q ignore-if-assigned=%t disable-recommendations=%t disable-labels=%t tidelift=%t",
		c.IssueNumber, c.IgnoreIfAssigned, c.DisableRecommendations, c.DisableLabels, c.TideliftAPIKey != "")
}
