// Package storage resolves configuration values through the scope → global → default
// fallback chain.
//
// The working set is a ResolvedMap snapshot built from definition defaults overlaid
// with every stored row, each value prepared to its typed representation exactly once.
// A snapshot is served from the in-process memo, then from the shared cache, and is
// rebuilt from the repository on a miss. Every write discards both the memo and the
// shared cache entry after the repository write has returned.
package storage
