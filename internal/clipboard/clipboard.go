// package clipboard exposes the clipboard capability behind an opaque
// provider interface, chosen once at daemon boot by environment probes.
package clipboard

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

// Provider is the capability interface handed to the core.
type Provider interface {
	Get() (string, error)
	Set(text string) error
}

// NewProvider picks a clipboard provider for the current environment:
// pbcopy/pbpaste when present, a Wayland provider under WAYLAND_DISPLAY, an
// X11 provider under DISPLAY, and a library-backed fallback otherwise.
func NewProvider() Provider {
	if _, err := exec.LookPath("pbcopy"); err == nil {
		if _, err := exec.LookPath("pbpaste"); err == nil {
			return commandProvider{copyCmd: []string{"pbcopy"}, pasteCmd: []string{"pbpaste"}}
		}
	}

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return commandProvider{copyCmd: []string{"wl-copy"}, pasteCmd: []string{"wl-paste", "--no-newline"}}
		}
	}

	if os.Getenv("DISPLAY") != "" {
		if _, err := exec.LookPath("xclip"); err == nil {
			return commandProvider{
				copyCmd:  []string{"xclip", "-selection", "clipboard"},
				pasteCmd: []string{"xclip", "-selection", "clipboard", "-o"},
			}
		}
	}

	return libraryProvider{}
}

// commandProvider shells out to the platform clipboard tools.
type commandProvider struct {
	copyCmd  []string
	pasteCmd []string
}

func (p commandProvider) Get() (string, error) {
	out, err := exec.Command(p.pasteCmd[0], p.pasteCmd[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("failed to read the clipboard: %w", err)
	}
	return string(out), nil
}

func (p commandProvider) Set(text string) error {
	cmd := exec.Command(p.copyCmd[0], p.copyCmd[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write the clipboard: %w", err)
	}
	return nil
}

// libraryProvider falls back to the cross-platform clipboard library.
type libraryProvider struct{}

func (libraryProvider) Get() (string, error) {
	return clipboard.ReadAll()
}

func (libraryProvider) Set(text string) error {
	return clipboard.WriteAll(text)
}
