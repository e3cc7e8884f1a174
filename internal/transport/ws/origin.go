package ws

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.allowAll = true
			continue
		}
		n, ok := normalizeOrigin(o)
		if !ok {
			slog.Warn("ignoring invalid origin in configuration", "origin", o)
			continue
		}
		p.allowed[n] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

// check lets through requests without an Origin header (non-browser clients).
func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.allowAll {
		return true
	}
	n, ok := normalizeOrigin(origin)
	if ok {
		if _, found := p.allowed[n]; found {
			return true
		}
	}
	slog.Warn("ws origin rejected", "origin", origin)
	return false
}
