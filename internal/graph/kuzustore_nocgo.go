//go:build !cgo

package graph

import "errors"

// errKuzuUnavailable is returned when the binary was built without CGO.
var errKuzuUnavailable = errors.New("kuzu: store requires a cgo-enabled build")

// KuzuStore is unavailable without CGO.
type KuzuStore struct{ Store }

// NewKuzuStore always fails without CGO.
func NewKuzuStore() (*KuzuStore, error) {
	return nil, errKuzuUnavailable
}

// NewKuzuFileStore always fails without CGO.
func NewKuzuFileStore(string) (*KuzuStore, error) {
	return nil, errKuzuUnavailable
}
