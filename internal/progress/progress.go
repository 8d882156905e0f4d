// Package progress renders terminal progress for long-running CLI
// operations: single step-count bars here, per-service scenario spinners
// in ScenarioUI.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// CLIProgress wraps a single progress bar for step-counted operations,
// such as waiting for the agent daemon to exit.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{}
}

// Start initializes the progress bar with a step count and description.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
