package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand picks the platform launcher for a URL. An empty name means
// the platform has no known launcher.
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "linux":
		return "xdg-open", []string{url}
	case "windows":
		return "cmd", []string{"/c", "start", url}
	}
	return "", nil
}

// OpenBrowser points the default system browser at url. The command is
// started without waiting on it, so a slow browser never stalls the
// consent flow.
func OpenBrowser(url string) error {
	name, args := browserCommand(getRuntime(), url)
	if name == "" {
		return fmt.Errorf("unsupported platform: %s", getRuntime())
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
