// Package session persists the orchestrator's last identity snapshot so a
// restarted process can resume in its derived session state instead of
// flashing signed-out before the first provider push.
//
// The snapshot is a convenience cache, never an authority: the provider's
// identity push always replaces whatever was restored. Records are encoded
// in a compact versioned binary format and stored under a single key in
// Redis.
package session
