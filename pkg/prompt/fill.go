package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/form"
)

// fieldPrompt describes how one AgentConfig field is asked for
type fieldPrompt struct {
	field    agent.Field
	message  string
	help     string
	secret   bool
	required bool
}

var fieldPrompts = []fieldPrompt{
	{
		field:    agent.FieldToken,
		message:  "GitHub Personal Access Token",
		help:     "Classic (ghp_...) or fine-grained (github_pat_...) token with repo write access",
		secret:   true,
		required: true,
	},
	{field: agent.FieldRepoOwner, message: "Repository owner", help: "GitHub user or organization", required: true},
	{field: agent.FieldRepoName, message: "Repository name", required: true},
	{field: agent.FieldBranch, message: "Branch", help: "Defaults to main"},
	{field: agent.FieldWebsiteURL, message: "Website URL", help: "e.g. https://example.com", required: true},
	{field: agent.FieldAnalyticsProperty, message: "Analytics property (optional)"},
	{field: agent.FieldAgentName, message: "Agent name", required: true},
	{field: agent.FieldScheduleMinutes, message: "Review every N minutes (optional)", help: "Leave blank to disable scheduled reviews"},
}

// FillOptions controls which fields Fill asks for
type FillOptions struct {
	// All asks every field; otherwise only blank required fields are asked
	All bool
}

// Fill asks for form values through driver and writes them to ctrl.
// Required fields must not be blank; malformed values are accepted and
// reported as warnings, matching the form's submit gating.
func Fill(ctx context.Context, driver Driver, ctrl *form.Controller, printer *Printer, opts FillOptions) error {
	for _, fp := range fieldPrompts {
		current, err := currentValue(ctrl, fp.field)
		if err != nil {
			return err
		}
		if !opts.All && (!fp.required || strings.TrimSpace(current) != "") {
			continue
		}

		value, err := ask(ctx, driver, fp, current)
		if err != nil {
			return err
		}
		if err := ctrl.SetField(fp.field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", fp.field, err)
		}
		if printer != nil {
			printer.FieldWarning(ctrl.Snapshot().Config, fp.field)
		}
	}
	return nil
}

func ask(ctx context.Context, driver Driver, fp fieldPrompt, current string) (string, error) {
	cfg := InputConfig{
		Message: fp.message,
		Help:    fp.help,
		Default: current,
	}
	if fp.required {
		cfg.Validator = requiredValidator(fp.field, current)
	}
	if fp.secret {
		return driver.Password(ctx, cfg)
	}
	return driver.Input(ctx, cfg)
}

func requiredValidator(field agent.Field, current string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" && strings.TrimSpace(current) == "" {
			return errors.New(string(field) + " is required")
		}
		return nil
	}
}

func currentValue(ctrl *form.Controller, field agent.Field) (string, error) {
	cfg := ctrl.Snapshot().Config
	return cfg.Get(field)
}

// ConfirmReview asks whether a review should start right after configuration
func ConfirmReview(ctx context.Context, driver Driver) (bool, error) {
	return driver.Confirm(ctx, ConfirmConfig{
		Message: "Start a review now?",
		Help:    "Runs one analytics review and applies the resulting change to the site",
		Default: true,
	})
}
