package app

import (
	"net/url"
	"strings"
)

// pgxOnlyParams are accepted by pgx DSNs but rejected by lib/pq as unknown runtime parameters.
var pgxOnlyParams = []string{
	"disable_prepared_binary_result",
	"pool_max_conns",
	"pool_min_conns",
	"statement_cache_capacity",
}

func normalizeDBURL(raw, applicationName string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	for _, key := range pgxOnlyParams {
		query.Del(key)
	}
	if applicationName = strings.TrimSpace(applicationName); applicationName != "" && query.Get("application_name") == "" {
		query.Set("application_name", applicationName)
	}
	parsed.RawQuery = query.Encode()

	return parsed.String()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
