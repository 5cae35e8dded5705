// Package notify delivers desktop notifications about ranked results.
package notify

import "github.com/gen2brain/beeep"

// DefaultTitle is the notification title used by the CLI.
const DefaultTitle = "Top movers update"

// Send shows a desktop notification with the given title and body using
// the platform notification service.
func Send(title, message string) error {
	return beeep.Notify(title, message, "")
}
