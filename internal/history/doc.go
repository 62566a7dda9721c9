// Package history persists the set of candidate keys that were published.
//
// FileStore keeps a JSON array and serializes writers with a flock; SQLiteStore
// keeps the same ordered set in a table. Both treat appending an existing key as
// a no-op. RunLock is the process-level guard the pipeline holds for a whole
// run, so a second concurrent run fails with ErrHistoryLocked instead of racing
// the first one.
package history
