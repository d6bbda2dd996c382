package figdiff

import "errors"

var (
	// ErrNoReference is logged when Figma returns no render URL for a node.
	ErrNoReference = errors.New("figdiff: no reference image")
	// ErrNoDocument is returned when the file has no document tree.
	ErrNoDocument = errors.New("figdiff: file has no document")
	// ErrNoStore is returned by history operations when no store is set.
	ErrNoStore = errors.New("figdiff: run history disabled")
	// ErrBusy is returned when a run is requested while one is in progress.
	ErrBusy = errors.New("figdiff: run already in progress")
)
