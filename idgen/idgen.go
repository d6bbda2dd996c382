// Package idgen generates identifiers for figdiff runs and report artefacts.
//
// Run IDs are UUIDv7 so that history rows sort by creation time. Run
// directories use a timestamped form so they also sort on disk.
package idgen

import (
	"time"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Timestamped returns a Generator that produces IDs in the format
// "20060102T150405Z_<suffix>". now is injectable for tests; nil means
// time.Now.
func Timestamped(gen Generator, now func() time.Time) Generator {
	if now == nil {
		now = time.Now
	}
	return func() string {
		return now().UTC().Format("20060102T150405Z") + "_" + gen()
	}
}

// Default is the run ID generator: "run_" + UUIDv7.
var Default Generator = Prefixed("run_", UUIDv7())

// Short returns the first 8 characters of the UUID part of a run ID, used
// in directory names.
func Short(id string) string {
	u := id
	if i := len(u) - 36; i > 0 {
		u = u[i:]
	}
	if _, err := uuid.Parse(u); err != nil {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	}
	return u[:8]
}
