package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/lise-project/lise-desktop/internal/constants"
)

// ScenarioUI renders one spinner line per compose service while a
// scenario is starting. The agent reports completion for the scenario
// as a whole, so the bars animate until the start call returns and are
// then resolved together.
type ScenarioUI struct {
	progress      *mpb.Progress
	isTerminal    bool
	totalServices int
	started       int32 // atomic counter for service index (1, 2, 3, ...)
}

// ServiceBar represents a single compose service line.
type ServiceBar struct {
	bar       *mpb.Bar
	ui        *ScenarioUI
	index     int
	name      string
	startTime time.Time
}

// NewScenarioUI creates a scenario startup UI for the given number of services.
func NewScenarioUI(totalServices int) *ScenarioUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		// Enable ANSI escape sequences on Windows for proper rendering
		enableANSIOnWindows(os.Stderr)

		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(constants.ProgressUpdateInterval),
			mpb.WithWidth(64),
		)
	} else {
		// Non-TTY: disable the spinners, just use text output
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &ScenarioUI{
		progress:      p,
		isTerminal:    isTerminal,
		totalServices: totalServices,
	}
}

// AddService creates a spinner line for one compose service.
func (u *ScenarioUI) AddService(name string) *ServiceBar {
	index := int(atomic.AddInt32(&u.started, 1))

	sb := &ServiceBar{
		ui:        u,
		index:     index,
		name:      name,
		startTime: time.Now(),
	}

	if u.isTerminal {
		sb.bar = u.progress.New(1,
			mpb.SpinnerStyle().PositionLeft(),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s", index, u.totalServices, name), decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.Name("starting", decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Printf("Starting [%d/%d]: %s\n", index, u.totalServices, name)
	}

	return sb
}

// Done marks the service as started and prints a summary line.
func (b *ServiceBar) Done() {
	elapsed := time.Since(b.startTime)

	if b.bar != nil {
		b.bar.Increment() // total is 1, completes and removes the spinner
	}

	msg := fmt.Sprintf("✓ %s (%s)\n", b.name, elapsed.Round(100*time.Millisecond))

	// Write through mpb's writer (not stdout) to avoid corrupting active bars
	if b.ui.isTerminal && b.ui.progress != nil {
		b.ui.progress.Write([]byte(msg))
	} else {
		fmt.Print(msg)
	}
}

// Abort removes the spinner without a summary line. The caller reports
// the scenario-level error once instead of repeating it per service.
func (b *ServiceBar) Abort() {
	if b.bar != nil {
		b.bar.Abort(true)
	}
}

// Wait blocks until all spinner lines resolve.
func (u *ScenarioUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows for ANSI escape sequences
// This is a no-op on non-Windows platforms
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
