package logstream

import "regexp"

// ansiEscape matches CSI sequences and single-character escapes, which
// container runtimes love to sprinkle into log output.
var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// StripANSI removes terminal escape sequences from a log line so it can
// be stored and displayed as plain text.
func StripANSI(line string) string {
	return ansiEscape.ReplaceAllString(line, "")
}
