package figdiff

import "github.com/hazyhaar/figdiff/figdiff/internal/store"

// Store is the run history database.
type Store = store.Store

// OpenStore opens the history database at path, creating it if needed.
func OpenStore(path string) (*Store, error) {
	return store.Open(path)
}
