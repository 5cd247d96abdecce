package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/form"
)

const progressBarWidth = 20

// Printer renders form state to a terminal
type Printer struct {
	w       io.Writer
	ok      *color.Color
	warn    *color.Color
	fail    *color.Color
	info    *color.Color
	subtle  *color.Color
	heading *color.Color
}

// NewPrinter creates a Printer writing to w. Colors are disabled when useColor is false.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:       w,
		ok:      color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		info:    color.New(color.FgCyan),
		subtle:  color.New(color.FgHiBlack),
		heading: color.New(color.Bold),
	}
	if !useColor {
		for _, c := range []*color.Color{p.ok, p.warn, p.fail, p.info, p.subtle, p.heading} {
			c.DisableColor()
		}
	}
	return p
}

// Warnings prints inline format hints
func (p *Printer) Warnings(warnings []agent.Warning) {
	for _, w := range warnings {
		p.warn.Fprintf(p.w, "  ! %s: %s\n", w.Field, w.Message)
	}
}

// FieldWarning prints the hint for a single field, if any
func (p *Printer) FieldWarning(cfg agent.AgentConfig, field agent.Field) {
	for _, w := range agent.Warnings(cfg) {
		if w.Field == field {
			p.warn.Fprintf(p.w, "  ! %s\n", w.Message)
		}
	}
}

// Progress prints the setup progress bar
func (p *Printer) Progress(progress int) {
	filled := progress * progressBarWidth / agent.MaxProgress
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	p.info.Fprintf(p.w, "Setup progress [%s] %d%%\n", bar, progress)
}

// Validation prints the badges shown next to the token and the form
func (p *Printer) Validation(v agent.Validation) {
	if v.TokenValid {
		p.ok.Fprintln(p.w, "Token: valid format")
	} else {
		p.warn.Fprintln(p.w, "Token: unrecognized format")
	}
	if v.FormatValid() {
		p.ok.Fprintln(p.w, "All fields validated")
	}
	if !v.FormValid {
		p.subtle.Fprintln(p.w, "Fill in token, repository owner, repository name, website URL and agent name to deploy")
	}
}

// Snapshot prints the editable state of the form
func (p *Printer) Snapshot(s form.Snapshot) {
	p.Progress(s.Progress)
	p.Validation(s.Validation)
	p.Warnings(s.Warnings)
}

// Configured prints the deployment summary. The token is masked unless showToken is set.
func (p *Printer) Configured(cfg agent.AgentConfig, showToken bool) {
	p.ok.Fprintln(p.w, "Agent deployed!")
	p.heading.Fprintln(p.w, "SEO Agent Successfully Configured")
	p.line("Agent Name", cfg.AgentName)
	p.line("Repository", cfg.RepoFullName())
	branch := cfg.Branch
	if strings.TrimSpace(branch) == "" {
		branch = agent.DefaultBranch
	}
	p.line("Branch", branch)
	p.line("Website", cfg.WebsiteURL)
	if showToken {
		p.line("GitHub Token", cfg.Token)
	} else {
		p.line("GitHub Token", agent.MaskToken(cfg.Token)+" (secured)")
	}
	if strings.TrimSpace(cfg.AnalyticsProperty) != "" {
		p.line("Analytics", cfg.AnalyticsProperty)
	}
	if minutes := agent.ParseScheduleMinutes(cfg.ScheduleMinutes); minutes != nil {
		p.line("Review every", fmt.Sprintf("%g minutes", *minutes))
	}
}

// Instruction prints the result of a review
func (p *Printer) Instruction(instruction string) {
	if instruction == "" {
		p.subtle.Fprintln(p.w, "Review finished without an instruction")
		return
	}
	p.heading.Fprint(p.w, "Last instruction: ")
	fmt.Fprintln(p.w, instruction)
}

// Error prints a failure
func (p *Printer) Error(err error) {
	p.fail.Fprintf(p.w, "Error: %v\n", err)
}

// Info prints a neutral message
func (p *Printer) Info(format string, args ...interface{}) {
	p.info.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) line(label, value string) {
	p.heading.Fprintf(p.w, "  %s: ", label)
	fmt.Fprintln(p.w, value)
}
