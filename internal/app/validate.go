package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// assetKeyPrefixes is the allow-list of top-level theme directories a
// proposal may touch. This validator is the only defense between a malformed
// AI payload and a live storefront theme, so it runs before any remote write
// and rejects the whole batch on any single violation.
var assetKeyPrefixes = []string{
	"layout/",
	"templates/",
	"sections/",
	"snippets/",
	"assets/",
	"config/",
	"locales/",
}

const defaultMaxAssetBytes = 500_000

func assetKeyViolations(key string) []string {
	if strings.TrimSpace(key) == "" {
		return []string{"asset key must not be empty"}
	}

	var violations []string
	if strings.HasPrefix(key, "/") {
		violations = append(violations, fmt.Sprintf("key %q must not start with '/'", key))
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			violations = append(violations, fmt.Sprintf("key %q must not contain '..' path segments", key))
			break
		}
	}

	allowed := false
	for _, prefix := range assetKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		violations = append(violations, fmt.Sprintf("key %q is outside the allowed theme directories", key))
	}
	return violations
}

// validateAssetFiles checks an entire asset batch and reports every
// violation found, not just the first. On success it returns the batch as a
// plain string map.
func validateAssetFiles(raw map[string]any, maxBytes int) (map[string]string, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxAssetBytes
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	files := make(map[string]string, len(raw))
	var violations []string
	for _, key := range keys {
		violations = append(violations, assetKeyViolations(key)...)

		value, ok := raw[key].(string)
		if !ok {
			violations = append(violations, fmt.Sprintf("key %q must map to a string value", key))
			continue
		}
		if len(value) > maxBytes {
			violations = append(violations, fmt.Sprintf("key %q exceeds the %d byte ceiling", key, maxBytes))
		}
		if strings.HasSuffix(key, ".json") && !json.Valid([]byte(value)) {
			violations = append(violations, fmt.Sprintf("key %q must contain well-formed JSON", key))
		}
		files[key] = value
	}

	if len(violations) > 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid asset batch", violations)
	}
	return files, nil
}
