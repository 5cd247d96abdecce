package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
)

var (
	sampleForce bool
	jsonOutput  bool
)

var HelpersCmd = &cobra.Command{
	Use:   "helpers",
	Short: "Helper utilities for seo-agent-proxy",
	Long:  "Collection of helper utilities for preparing agent configuration files",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Available helpers:")
		fmt.Println("  validate      - Check an agent config file and show setup progress")
		fmt.Println("  sample-config - Write an example agent config file")
		fmt.Println("Use 'seo-agent-proxy helpers --help' for more information about available subcommands.")
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate an agent config file",
	Long: `Run the form validation rules over an agent config file.

Exits non-zero only when a required field is missing; format problems are
reported as warnings, the same way the form treats them.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config <file>",
	Short: "Write an example agent config file",
	Long:  "Write an example agent config file. The format follows the extension: .yaml, .yml, .toml or .json. The token is never written.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSampleConfig,
}

func init() {
	validateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the validation result as JSON")
	validateCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	sampleConfigCmd.Flags().BoolVar(&sampleForce, "force", false, "Overwrite an existing file")

	HelpersCmd.AddCommand(validateCmd)
	HelpersCmd.AddCommand(sampleConfigCmd)
}

// validationReport is the machine readable form of `helpers validate`
type validationReport struct {
	Validation agent.Validation `json:"validation"`
	Warnings   []agent.Warning  `json:"warnings"`
	Progress   int              `json:"progress"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := agent.LoadFile(args[0])
	if err != nil {
		return err
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" && cfg.Token == "" {
		cfg.Token = token
	}

	validation := agent.Validate(cfg)
	if jsonOutput {
		report := validationReport{
			Validation: validation,
			Warnings:   agent.Warnings(cfg),
			Progress:   agent.Progress(cfg),
		}
		if err := printStructured(os.Stdout, report, "json"); err != nil {
			return err
		}
	} else {
		printer := newPrinter()
		printer.Progress(agent.Progress(cfg))
		printer.Validation(validation)
		printer.Warnings(agent.Warnings(cfg))
	}

	if !validation.FormValid {
		return fmt.Errorf("%s is missing required fields", args[0])
	}
	return nil
}

func runSampleConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !sampleForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	sample := agent.AgentConfig{
		RepoOwner:         "your-org",
		RepoName:          "your-site",
		Branch:            agent.DefaultBranch,
		WebsiteURL:        "https://example.com",
		AnalyticsProperty: "",
		AgentName:         "seo-agent",
		ScheduleMinutes:   "60",
	}
	if err := agent.WriteFile(path, sample); err != nil {
		return err
	}
	fmt.Printf("Wrote sample agent config to %s (set the token with --token or $GITHUB_TOKEN)\n", path)
	return nil
}
