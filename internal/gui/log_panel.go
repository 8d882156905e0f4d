package gui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/lise-project/lise-desktop/internal/constants"
)

// logSource tags where a log line came from.
type logSource string

const (
	sourceScenario logSource = "scenario"
	sourceConsole  logSource = "console"
)

// logLine is a single line in the log view.
type logLine struct {
	when   time.Time
	source logSource
	text   string
}

// formatLine renders one line for the view. Console lines arrive already
// rendered by the logger (timestamp included); scenario lines are raw
// container output and get stamped here.
func formatLine(line logLine) string {
	if line.source == sourceConsole {
		return line.text
	}
	return fmt.Sprintf("%s %s", line.when.Format("15:04:05"), line.text)
}

// appendCapped appends line and drops the oldest entries beyond max.
func appendCapped(lines []logLine, line logLine, max int) []logLine {
	lines = append(lines, line)
	if len(lines) > max {
		lines = lines[len(lines)-max:]
	}
	return lines
}

// filterLines returns the lines matching a source selection ("All Sources",
// "Scenario", "Console") and a case-insensitive search string.
func filterLines(lines []logLine, source, search string) []logLine {
	search = strings.ToLower(search)

	filtered := make([]logLine, 0, len(lines))
	for _, line := range lines {
		switch source {
		case "Scenario":
			if line.source != sourceScenario {
				continue
			}
		case "Console":
			if line.source != sourceConsole {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(formatLine(line)), search) {
			continue
		}
		filtered = append(filtered, line)
	}
	return filtered
}

// LogPanel shows scenario container logs and the console's own log lines
// in one filterable view.
type LogPanel struct {
	window fyne.Window

	logText      *widget.Entry
	logScroll    *container.Scroll
	sourceFilter *widget.Select
	searchEntry  *widget.Entry
	autoScroll   *widget.Check
	clearButton  *widget.Button
	countLabel   *widget.Label

	mu       sync.RWMutex
	lines    []logLine
	maxLines int
}

// NewLogPanel creates an empty log panel capped at the view limit.
func NewLogPanel(window fyne.Window) *LogPanel {
	return &LogPanel{
		window:   window,
		lines:    make([]logLine, 0, 256),
		maxLines: constants.LogViewMaxLines,
	}
}

// Build creates the log panel UI
func (lp *LogPanel) Build() fyne.CanvasObject {
	lp.logText = widget.NewMultiLineEntry()
	lp.logText.SetPlaceHolder("Scenario and console logs will appear here...")
	lp.logText.Wrapping = fyne.TextWrapWord
	lp.logText.Disable() // Read-only

	lp.logScroll = container.NewScroll(lp.logText)
	lp.logScroll.SetMinSize(fyne.NewSize(760, 320))

	lp.countLabel = widget.NewLabel("0 lines")

	lp.searchEntry = widget.NewEntry()
	lp.searchEntry.SetPlaceHolder("Search logs...")
	lp.searchEntry.OnChanged = func(string) { lp.refreshDisplay() }

	lp.sourceFilter = widget.NewSelect([]string{
		"All Sources",
		"Scenario",
		"Console",
	}, func(string) { lp.refreshDisplay() })
	lp.sourceFilter.SetSelected("All Sources")

	lp.autoScroll = widget.NewCheck("Auto-scroll", nil)
	lp.autoScroll.SetChecked(true)

	lp.clearButton = widget.NewButton("Clear", func() {
		lp.mu.RLock()
		count := len(lp.lines)
		lp.mu.RUnlock()
		dialog.ShowConfirm("Clear logs?",
			fmt.Sprintf("This will discard all %d lines.", count),
			func(confirmed bool) {
				if confirmed {
					lp.clear()
				}
			},
			lp.window,
		)
	})

	filterSection := container.NewBorder(
		nil, nil,
		container.NewHBox(widget.NewLabel("Source:"), lp.sourceFilter),
		container.NewHBox(lp.countLabel, lp.autoScroll, lp.clearButton),
		container.NewBorder(nil, nil, widget.NewLabel("Search:"), nil, lp.searchEntry),
	)

	return container.NewBorder(
		container.NewVBox(filterSection, widget.NewSeparator()),
		nil, nil, nil,
		lp.logScroll,
	)
}

// AddScenarioLine appends one container log line.
func (lp *LogPanel) AddScenarioLine(text string) {
	lp.add(logLine{when: time.Now(), source: sourceScenario, text: text})
}

// AddConsoleLine appends one line from the console's own logger.
func (lp *LogPanel) AddConsoleLine(text string) {
	lp.add(logLine{when: time.Now(), source: sourceConsole, text: text})
}

func (lp *LogPanel) add(line logLine) {
	lp.mu.Lock()
	lp.lines = appendCapped(lp.lines, line, lp.maxLines)
	lp.mu.Unlock()

	lp.refreshDisplay()
}

// refreshDisplay rebuilds the text view from the filtered lines. Safe to
// call from any goroutine; the widget work runs on the UI thread.
func (lp *LogPanel) refreshDisplay() {
	fyne.Do(func() {
		if lp.logText == nil {
			return
		}

		lp.mu.RLock()
		filtered := filterLines(lp.lines, lp.sourceFilter.Selected, lp.searchEntry.Text)
		total := len(lp.lines)
		lp.mu.RUnlock()

		var sb strings.Builder
		for _, line := range filtered {
			sb.WriteString(formatLine(line))
			sb.WriteString("\n")
		}

		lp.logText.SetText(sb.String())
		lp.countLabel.SetText(fmt.Sprintf("%d lines", total))
		if lp.autoScroll.Checked {
			lp.logScroll.ScrollToBottom()
		}
	})
}

func (lp *LogPanel) clear() {
	lp.mu.Lock()
	lp.lines = lp.lines[:0]
	lp.mu.Unlock()

	lp.refreshDisplay()
}
