// Package browser opens URLs in the user's default web browser. It prefers
// the open-golang library and falls back to platform-specific commands so
// that the interactive authorization flow works across desktop environments.
package browser

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/skratchdot/open-golang/open"
)

// OpenURL opens the specified URL in the default web browser.
func OpenURL(url string) error {
	if err := open.Run(url); err == nil {
		return nil
	} else {
		slog.Debug("open-golang failed, trying platform-specific commands", "error", err)
	}
	return openURLPlatformSpecific(url)
}

// openURLPlatformSpecific opens a URL using OS-specific commands. It serves
// as a fallback for OpenURL.
func openURLPlatformSpecific(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		// Try common launchers in order of preference.
		launchers := []string{"xdg-open", "x-www-browser", "www-browser"}
		for _, launcher := range launchers {
			if _, err := exec.LookPath(launcher); err == nil {
				cmd = exec.Command(launcher, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser launcher found")
		}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
