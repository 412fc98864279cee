package gps

import "github.com/mediacutlet/nomadachi/internal/types"

// Source provides the current location when one is known.
// This allows stubbing GPS in tests.
type Source interface {
	Current() (types.Location, bool)
}

// Ensure both implementations satisfy Source
var _ Source = (*FileSource)(nil)
var _ Source = (*Watcher)(nil)
