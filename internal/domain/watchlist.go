package domain

import (
	"strings"
	"time"
)

// WatchlistMaxMints bounds how many mints one user can track.
const WatchlistMaxMints = 5

// Watchlist is a user's tracked mint list.
// Corresponds to the watchlists table in PostgreSQL.
type Watchlist struct {
	UserID    int64     // owning user, one row per user
	Mints     []string  // up to WatchlistMaxMints mint addresses
	UpdatedAt time.Time // last write timestamp
}

// NormalizeMints trims, drops empties, deduplicates preserving order, and
// caps the list at WatchlistMaxMints.
func NormalizeMints(mints []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, mint := range mints {
		mint = strings.TrimSpace(mint)
		if mint == "" || seen[mint] {
			continue
		}
		seen[mint] = true
		out = append(out, mint)
		if len(out) >= WatchlistMaxMints {
			break
		}
	}
	return out
}
