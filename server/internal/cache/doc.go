// Package cache provides the time-bounded key/value store shared by the
// upstream clients. Entries carry the time they were stored and the caller
// decides freshness on every read, so one store can serve keys with different
// windows. There is no background expiry; stale entries simply read as absent.
package cache
