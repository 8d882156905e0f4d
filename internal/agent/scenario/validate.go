// Package scenario runs compose-defined lab scenarios, one at a time.
package scenario

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by the runner. Handlers map these onto HTTP
// status codes.
var (
	ErrScenarioActive = errors.New("a scenario is already running")
	ErrNoScenario     = errors.New("no scenario is running")
	ErrInvalidCompose = errors.New("invalid compose definition")
)

type composeDoc struct {
	Services map[string]yaml.Node `yaml:"services"`
}

// Services parses the compose content and returns its service names,
// sorted. Content that does not parse or defines no services returns an
// error wrapping ErrInvalidCompose.
func Services(content string) ([]string, error) {
	var doc composeDoc
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCompose, err)
	}
	if len(doc.Services) == 0 {
		return nil, fmt.Errorf("%w: no services defined", ErrInvalidCompose)
	}
	names := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ValidateCompose rejects obviously broken compose input before anything
// is written to disk or handed to the compose command.
func ValidateCompose(content string) error {
	_, err := Services(content)
	return err
}
