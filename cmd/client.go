package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/client"
	"github.com/takutakahashi/seo-agent-proxy/pkg/form"
	"github.com/takutakahashi/seo-agent-proxy/pkg/prompt"
	"github.com/takutakahashi/seo-agent-proxy/pkg/utils"
)

var (
	endpoint      string
	clientTimeout time.Duration
	noColor       bool

	agentFile     string
	fieldFlags    = agent.AgentConfig{}
	interactive   bool
	askAll        bool
	demoFallback  bool
	showToken     bool
	reviewAfter   bool
	dryRun        bool
	outputFormat  string
	reviewGoal    string
	reviewCSVFile string
	reviewCSVURL  string
)

var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "SEO agent gateway client",
	Long:  "Command line front-end that fills in an agent configuration and talks to the gateway",
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure and deploy an SEO agent",
	Long: `Collect the agent configuration from an optional file, flags and interactive
prompts, validate it and submit it through the gateway.

Format problems (token shape, owner, repository name, URL) are reported as
warnings; submission only requires token, repository owner, repository name,
website URL and agent name to be filled in.

Examples:
  # Interactive
  seo-agent-proxy client configure -i

  # From a file, then run a review right away
  seo-agent-proxy client configure --file agent.yaml --review`,
	RunE: runConfigure,
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start an analytics review and update the site",
	RunE:  runReview,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show orchestrator status",
	RunE:  runStatus,
}

func init() {
	ClientCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "Gateway endpoint URL (default $"+client.EndpointEnv+" or "+client.DefaultEndpoint+")")
	ClientCmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", 0, "Request timeout, 0 waits for the gateway")
	ClientCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	f := configureCmd.Flags()
	f.StringVarP(&agentFile, "file", "f", "", "Agent config file (YAML, TOML or JSON)")
	f.StringVar(&fieldFlags.Token, "token", "", "GitHub personal access token (default $GITHUB_TOKEN)")
	f.StringVar(&fieldFlags.RepoOwner, "repo-owner", "", "Repository owner")
	f.StringVar(&fieldFlags.RepoName, "repo-name", "", "Repository name")
	f.StringVar(&fieldFlags.Branch, "branch", "", "Branch (default main)")
	f.StringVar(&fieldFlags.WebsiteURL, "website-url", "", "Website URL")
	f.StringVar(&fieldFlags.AnalyticsProperty, "analytics-property", "", "Analytics property id")
	f.StringVar(&fieldFlags.AgentName, "agent-name", "", "Agent name")
	f.StringVar(&fieldFlags.ScheduleMinutes, "schedule-minutes", "", "Review interval in minutes")
	f.BoolVarP(&interactive, "interactive", "i", false, "Prompt for missing required fields")
	f.BoolVar(&askAll, "all", false, "With --interactive, prompt for every field")
	f.BoolVar(&demoFallback, "demo-fallback", false, "Treat a failed submission as configured after a delay (demo only)")
	f.BoolVar(&showToken, "show-token", false, "Show the token in the summary instead of masking it")
	f.BoolVar(&reviewAfter, "review", false, "Start a review once the agent is configured")
	f.BoolVar(&dryRun, "dry-run", false, "Print the submission payload (token masked) instead of sending it")
	f.StringVarP(&outputFormat, "output", "o", "yaml", "Dry-run output format: yaml or json")
	addReviewFlags(f.StringVar)

	addReviewFlags(reviewCmd.Flags().StringVar)

	ClientCmd.AddCommand(configureCmd)
	ClientCmd.AddCommand(reviewCmd)
	ClientCmd.AddCommand(statusCmd)
}

func addReviewFlags(stringVar func(p *string, name, value, usage string)) {
	stringVar(&reviewGoal, "goal", agent.DefaultReviewGoal, "Goal for the review")
	stringVar(&reviewCSVFile, "csv-file", "", "Analytics CSV export to send with the review")
	stringVar(&reviewCSVURL, "csv-url", "", "URL of an analytics CSV export")
}

func newGatewayClient() *client.Client {
	return client.NewClient(
		client.ResolveEndpoint(endpoint),
		client.WithHTTPClient(utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: clientTimeout})),
	)
}

func newPrinter() *prompt.Printer {
	return prompt.NewPrinter(os.Stdout, !noColor)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	printer := newPrinter()

	var opts []form.Option
	if demoFallback {
		printer.Info("Demo fallback enabled: failed submissions will still be reported as configured")
		opts = append(opts, form.WithDemoFallback(form.DefaultDemoFallbackDelay))
	}
	ctrl := form.NewController(newGatewayClient(), opts...)

	initial, err := collectAgentConfig()
	if err != nil {
		return err
	}
	if err := ctrl.Update(func(cfg *agent.AgentConfig) { cfg.Merge(initial) }); err != nil {
		return err
	}

	var driver prompt.Driver
	if interactive {
		driver = prompt.NewSurveyDriver()
		if err := prompt.Fill(ctx, driver, ctrl, printer, prompt.FillOptions{All: askAll}); err != nil {
			return err
		}
	}

	snapshot := ctrl.Snapshot()
	printer.Snapshot(snapshot)

	if dryRun {
		envelope := agent.BuildEnvelope(snapshot.Config, time.Now())
		envelope.Token = agent.MaskToken(envelope.Token)
		return printStructured(os.Stdout, envelope, outputFormat)
	}

	return submitAndReview(ctx, ctrl, printer, driver)
}

// submitAndReview submits the form and, when --review is set or the user
// confirms the prompt, runs one review. driver is nil outside interactive mode.
func submitAndReview(ctx context.Context, ctrl *form.Controller, printer *prompt.Printer, driver prompt.Driver) error {
	if err := ctrl.Submit(ctx); err != nil {
		err = explainNotSent(err)
		printer.Error(err)
		return err
	}

	snapshot := ctrl.Snapshot()
	printer.Configured(snapshot.Config, showToken)
	if snapshot.LastError != nil {
		printer.Error(fmt.Errorf("submission failed, shown as configured by demo fallback: %w", snapshot.LastError))
	}

	startReview := reviewAfter
	if !startReview && driver != nil {
		confirmed, err := prompt.ConfirmReview(ctx, driver)
		if err != nil {
			return err
		}
		startReview = confirmed
	}
	if !startReview {
		return nil
	}

	req, err := buildReviewRequest()
	if err != nil {
		return err
	}
	printer.Info("Running review...")
	if err := ctrl.StartReview(ctx, req); err != nil {
		err = explainNotSent(err)
		printer.Error(err)
		return err
	}
	printer.Instruction(ctrl.LastInstruction())
	return nil
}

// explainNotSent marks controller guard results so they are not mistaken for
// a request the gateway rejected
func explainNotSent(err error) error {
	if form.IsGuardError(err) {
		return fmt.Errorf("nothing was sent to the gateway: %w", err)
	}
	return err
}

// collectAgentConfig merges the config file, $GITHUB_TOKEN and flags, in that order
func collectAgentConfig() (agent.AgentConfig, error) {
	cfg := agent.AgentConfig{}
	if agentFile != "" {
		loaded, err := agent.LoadFile(agentFile)
		if err != nil {
			return agent.AgentConfig{}, err
		}
		cfg.Merge(loaded)
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" && cfg.Token == "" {
		cfg.Token = token
	}
	cfg.Merge(fieldFlags)
	return cfg, nil
}

func buildReviewRequest() (agent.ReviewRequest, error) {
	req := agent.ReviewRequest{
		UserGoal: reviewGoal,
		CSVURL:   strings.TrimSpace(reviewCSVURL),
	}
	if reviewCSVFile != "" {
		data, err := os.ReadFile(reviewCSVFile)
		if err != nil {
			return req, fmt.Errorf("failed to read analytics CSV: %w", err)
		}
		req.CSVText = string(data)
	}
	return req, nil
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	printer := newPrinter()
	req, err := buildReviewRequest()
	if err != nil {
		return err
	}

	printer.Info("Running review...")
	env, err := newGatewayClient().Review(ctx, &req)
	if err != nil {
		printer.Error(err)
		return err
	}
	if !env.OK {
		err := &form.EnvelopeError{Code: env.Code, Message: env.Error}
		printer.Error(err)
		return err
	}
	printer.Instruction(env.Instruction())
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	printer := newPrinter()
	env, status, err := newGatewayClient().Status(ctx)
	if err != nil {
		printer.Error(err)
		return err
	}
	if !env.OK {
		err := &form.EnvelopeError{Code: env.Code, Message: env.Error}
		printer.Error(err)
		return err
	}
	if status == nil {
		return errors.New("gateway returned no status")
	}
	return printStructured(os.Stdout, status, "yaml")
}
