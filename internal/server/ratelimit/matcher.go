package ratelimit

import "strings"

// MatchEndpoint matches a request path and method to an endpoint
// configuration. Exact matches win. Configs with a trailing "/" match by
// prefix so "/sessions/" covers "/sessions/{id}/brief"; configs with a
// leading "*" match by suffix so "*/research" covers any session's research
// trigger. Returns nil when nothing matches.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks and event streams are never throttled
	if method == "GET" && (path == "/health" || strings.HasSuffix(path, "/events")) {
		return &EndpointConfig{Limit: 0}
	}

	for i := range configs {
		c := &configs[i]
		if c.Path == path && c.Method == method {
			return c
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if strings.HasPrefix(c.Path, "*") && strings.HasSuffix(path, c.Path[1:]) {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}

	return nil
}
