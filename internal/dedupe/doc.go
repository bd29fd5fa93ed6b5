// Package dedupe remembers the outcome of recently processed inputs, keyed by
// a content hash, so a repeated input within the TTL window gets the earlier
// result instead of being processed again.
package dedupe
