package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptPassword reads a secret from stdin with echo disabled. When
// stdin is not a terminal it falls back to a plain buffered read so
// piped input still works.
func promptPassword(label string) (string, error) {
	fmt.Print(label)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
