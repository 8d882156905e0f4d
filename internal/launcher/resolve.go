package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/lise-project/lise-desktop/internal/config"
	"github.com/lise-project/lise-desktop/internal/constants"
	"github.com/lise-project/lise-desktop/internal/version"
)

// AgentBinaryName returns the platform-specific file name of the agent binary.
func AgentBinaryName() string {
	if runtime.GOOS == "windows" {
		return constants.AgentBinaryBase + ".exe"
	}
	return constants.AgentBinaryBase
}

// ResolveAgentPath determines where the agent binary should live relative
// to the running console executable.
//
// Release builds ship the agent next to the console binary. Dev builds run
// the console from a nested build output directory, so the path walks up
// cfg.DevUnnestDepth parents before descending into cfg.DevAgentSubdir.
// cfg.AgentPath, when set, bypasses resolution entirely.
func ResolveAgentPath(cfg *config.LauncherConfig) (string, error) {
	if cfg.AgentPath != "" {
		return cfg.AgentPath, nil
	}

	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	if version.IsDev() {
		return devAgentPath(exeDir, cfg.DevUnnestDepth, cfg.DevAgentSubdir, AgentBinaryName()), nil
	}
	return releaseAgentPath(exeDir, AgentBinaryName()), nil
}

// devAgentPath walks up unnestDepth parents from exeDir, then descends
// into subdir to reach the agent build output.
func devAgentPath(exeDir string, unnestDepth int, subdir, binary string) string {
	dir := exeDir
	for i := 0; i < unnestDepth; i++ {
		dir = filepath.Dir(dir)
	}
	return filepath.Join(dir, filepath.FromSlash(subdir), binary)
}

// releaseAgentPath returns the sibling location next to the console binary.
func releaseAgentPath(exeDir, binary string) string {
	return filepath.Join(exeDir, binary)
}
