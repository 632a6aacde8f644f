// package notify implements the desktop-notification hook fired when the
// playing track changes.
package notify

import (
	"fmt"
	"os/exec"
	"strings"

	"spotd/internal/models"
)

// Notifier sends a desktop notification about a track. Implementations never
// fail the caller beyond returning an error to log.
type Notifier interface {
	NotifyNewTrack(track *models.Track, coverPath, summaryFormat, bodyFormat string) error
}

// RenderFormat substitutes the {track}, {artists} and {album} placeholders of
// a user format string with the track's data.
func RenderFormat(format string, track *models.Track) string {
	album := ""
	if track.Album != nil {
		album = track.Album.Name
	}

	replacer := strings.NewReplacer(
		"{track}", track.Name,
		"{artists}", track.ArtistNames(),
		"{album}", album,
	)
	return replacer.Replace(format)
}

// DesktopNotifier sends notifications through the desktop's notify-send tool.
type DesktopNotifier struct{}

// New returns a desktop notifier, or nil when the environment has no
// notification tool.
func New() Notifier {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return nil
	}
	return DesktopNotifier{}
}

func (DesktopNotifier) NotifyNewTrack(track *models.Track, coverPath, summaryFormat, bodyFormat string) error {
	summary := RenderFormat(summaryFormat, track)
	body := RenderFormat(bodyFormat, track)

	args := []string{"--app-name", "spotd"}
	if coverPath != "" {
		args = append(args, "--icon", coverPath)
	}
	args = append(args, summary, body)

	if err := exec.Command("notify-send", args...).Run(); err != nil {
		return fmt.Errorf("failed to send the notification: %w", err)
	}
	return nil
}
