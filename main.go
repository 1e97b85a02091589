package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/vuln-issue-scanner/config"
	"github.com/aquasecurity/vuln-issue-scanner/ghsa"
	"github.com/aquasecurity/vuln-issue-scanner/github"
	"github.com/aquasecurity/vuln-issue-scanner/issue"
	"github.com/aquasecurity/vuln-issue-scanner/scanner"
	"github.com/aquasecurity/vuln-issue-scanner/tidelift"
	"github.com/aquasecurity/vuln-issue-scanner/utils"
)

type runOptions struct {
	issueNumber            string
	ignoreIfAssigned       bool
	disableRecommendations bool
	disableLabels          bool
	configPath             string
	eventPath              string
	debug                  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "::error::%s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "vuln-issue-scanner",
		Short: "Label and annotate issues that mention vulnerabilities",
		Long: `Scan an issue for CVE and GHSA identifiers, label it, point out earlier
issues about the same vulnerability and post maintainer recommendations
from Tidelift.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := utils.InitLogger(o.debug)
			defer func() { _ = logger.Sync() }()
			zap.ReplaceGlobals(logger)

			return run(cmd.Context(), o, afero.NewOsFs(), os.LookupEnv, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.issueNumber, "issue-number", "", "scan this issue instead of the one that triggered the run")
	flags.BoolVar(&o.ignoreIfAssigned, "ignore-if-assigned", false, "take no action when the issue has assignees")
	flags.BoolVar(&o.disableRecommendations, "disable-recommendations", false, "skip Tidelift lookups")
	flags.BoolVar(&o.disableLabels, "disable-labels", false, "compute labels but do not apply them")
	flags.StringVar(&o.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&o.eventPath, "event-path", utils.LookupEnv("GITHUB_EVENT_PATH", ""), "path of the webhook event payload")
	flags.BoolVar(&o.debug, "debug", false, "debug logging")
	return cmd
}

func run(ctx context.Context, o runOptions, appFs afero.Fs, lookup utils.Lookup, out io.Writer) error {
	conf, err := config.Load(lookup, appFs, o.configPath, config.Configuration{
		IssueNumber:            o.issueNumber,
		IgnoreIfAssigned:       o.ignoreIfAssigned,
		DisableRecommendations: o.disableRecommendations,
		DisableLabels:          o.disableLabels,
	})
	if err != nil {
		return xerrors.Errorf("config error: %w", err)
	}
	zap.S().Debugf("configuration: %s", conf)

	event, err := issue.LoadEvent(appFs, o.eventPath)
	if err != nil {
		return err
	}
	if fullName, ok := lookup("GITHUB_REPOSITORY"); ok {
		event = event.WithRepository(fullName)
	}

	i, err := issue.FindCurrentIssue(event, conf.IssueNumber)
	if xerrors.Is(err, issue.ErrIssueNotFound) {
		fmt.Fprintln(out, "::notice::Could not find current issue. Skipping.")
		return nil
	} else if err != nil {
		return err
	}

	message, err := newScanner(conf).Perform(ctx, i)
	if err != nil {
		return xerrors.Errorf("scan error on %s: %w", i, err)
	}
	fmt.Fprintln(out, message)
	return nil
}

func newScanner(conf config.Configuration) scanner.Scanner {
	gh := github.NewClient(conf.GithubToken, github.WithTimeout(conf.Timeout))

	var vulns scanner.VulnerabilityClient
	if conf.RecommendationsEnabled() {
		vulns = tidelift.NewClient(conf.TideliftAPIKey,
			tidelift.WithConcurrency(conf.Concurrency),
			tidelift.WithTimeout(conf.Timeout),
		)
	}

	return scanner.NewScanner(conf, gh,
		scanner.WithAdvisoryResolver(ghsa.NewResolver(gh.GraphQL())),
		scanner.WithVulnerabilityClient(vulns),
	)
}
