package browser

import (
	"time"

	"matchworker/logger"
)

// popupTargets are the overlays the site is known to raise on first load.
// Each entry carries its own candidate list since consent vendors change
// markup independently.
var popupTargets = []struct {
	name       string
	candidates []Candidate
}{
	{
		name: "cookie consent",
		candidates: []Candidate{
			ID("onetrust-accept-btn-handler"),
			CSS("#qc-cmp2-ui button[mode='primary']"),
			TextEquals("button", "AGREE"),
		},
	},
	{
		name: "notification prompt",
		candidates: []Candidate{
			CSS(".webpush-swal2-close"),
			CSS("button.swal2-cancel"),
		},
	},
}

// DismissPopups clears consent and notification overlays after a page load.
// Best effort: a popup that never appears is the normal case, not a failure.
func DismissPopups(session Session) {
	log := logger.ForBrowser()
	clicker := NewFallbackClicker(session, 3*time.Second)
	clicker.SettleDelay = 500 * time.Millisecond

	for _, target := range popupTargets {
		if clicker.ClickAny(target.name, target.candidates) {
			log.Debug().Str("popup", target.name).Msg("Popup dismissed")
		}
	}
}
