package publish

import (
	"strings"

	"github.com/creatorstation/editorial/internal/models"
	"golang.org/x/exp/slices"
)

// Route is one canonical fan-out destination.
type Route struct {
	Network       string `json:"network"`
	Scope         string `json:"scope"`
	TargetID      string `json:"target_id"`
	CredentialRef string `json:"credential_ref"`
}

var networkAliases = map[string]string{
	"fb":      "facebook",
	"meta":    "facebook",
	"twitter": "x",
	"ig":      "instagram",
	"tg":      "telegram",
	"li":      "linkedin",
	"wa":      "whatsapp",
	"yt":      "youtube",
}

var defaultScopes = map[string]string{
	"facebook":  "page",
	"instagram": "business",
	"x":         "profile",
	"telegram":  "channel",
	"linkedin":  "organization",
	"whatsapp":  "channel",
	"youtube":   "channel",
}

// BuildRoutes normalizes approved, active destinations into a
// deduplicated, stably ordered routing table.
func BuildRoutes(rows []models.SocialDestination) []Route {
	seen := map[string]bool{}
	var routes []Route
	for _, row := range rows {
		if !row.Active || !strings.EqualFold(strings.TrimSpace(row.AuthorizationStatus), models.AuthorizationApproved) {
			continue
		}
		network := strings.ToLower(strings.TrimSpace(row.Network))
		if alias, ok := networkAliases[network]; ok {
			network = alias
		}
		target := strings.TrimSpace(row.TargetID)
		if network == "" || target == "" {
			continue
		}
		scope := strings.ToLower(strings.TrimSpace(row.Scope))
		if scope == "" {
			scope = defaultScopes[network]
		}
		if scope == "" {
			scope = "profile"
		}
		key := network + "|" + scope + "|" + target
		if seen[key] {
			continue
		}
		seen[key] = true
		routes = append(routes, Route{
			Network:       network,
			Scope:         scope,
			TargetID:      target,
			CredentialRef: strings.TrimSpace(row.CredentialRef),
		})
	}
	slices.SortFunc(routes, func(a, b Route) int {
		if c := strings.Compare(a.Network, b.Network); c != 0 {
			return c
		}
		if c := strings.Compare(a.Scope, b.Scope); c != 0 {
			return c
		}
		return strings.Compare(a.TargetID, b.TargetID)
	})
	return routes
}
