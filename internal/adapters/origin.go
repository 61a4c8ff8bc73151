package adapters

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// newOriginChecker builds the Upgrader's CheckOrigin from the configured
// origin list. "*" admits every origin. Requests without an Origin header
// (non-browser clients) are admitted; the check exists to stop cross-site
// browser calls, not tooling.
func newOriginChecker(origins []string) func(*http.Request) bool {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("module", "adapters.origin").Str("origin", origin).Msg("ignoring invalid configured origin")
			continue
		}
		allowed[normalized] = struct{}{}
	}

	return func(r *http.Request) bool {
		header := r.Header.Get("Origin")
		if header == "" || allowAll {
			return true
		}
		normalized, ok := normalizeOrigin(header)
		if !ok {
			return false
		}
		if _, ok := allowed[normalized]; ok {
			return true
		}
		log.Warn().Str("module", "adapters.origin").Str("origin", header).Msg("blocked connection from disallowed origin")
		return false
	}
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
