package enum

import "strings"

// DetectBackend determines the store backend from a store URL:
// postgres:// or postgresql:// -> postgres, props:// or *.properties / *.txt -> props,
// everything else -> sqlite.
func DetectBackend(url string) Backend {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return BackendPostgres
	case strings.HasPrefix(lower, "props://"), strings.HasSuffix(lower, ".properties"), strings.HasSuffix(lower, ".txt"):
		return BackendProps
	default:
		return BackendSQLite
	}
}
