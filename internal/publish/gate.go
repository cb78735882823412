// Package publish turns a verified draft into a public post and hands the
// social fan-out to a background dispatcher.
package publish

import (
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/store"
)

// GateOpen reports whether both the global kill-switch and the candidate's
// own auto-publish flag allow publishing.
func GateOpen(settings store.Settings, c models.Candidate) bool {
	return settings.AutoPublishEnabled && c.AutoPublish
}
