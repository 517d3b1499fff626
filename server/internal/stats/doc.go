// Package stats holds the mock disease statistics served by GET /covid-data/.
//
// The data set is a fixed list of Record values seeded at package init. It is
// never written after init; All returns a fresh copy on every call so callers
// cannot reach the backing array.
package stats
