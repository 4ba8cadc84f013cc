package graph

import (
	"context"
	"fmt"
)

// StoreKind names a Store implementation.
type StoreKind string

const (
	StoreKuzu   StoreKind = "kuzu"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

// OpenStore opens the store of the given kind at path and initializes its
// schema. path is ignored for the memory store; an empty path opens an
// in-memory database for the others.
func OpenStore(ctx context.Context, kind StoreKind, path string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch kind {
	case StoreMemory:
		s = NewMemStore()
	case StoreKuzu, "":
		if path == "" {
			s, err = NewKuzuStore()
		} else {
			s, err = NewKuzuFileStore(path)
		}
	case StoreSQLite:
		if path == "" {
			path = ":memory:"
		}
		s, err = NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store kind: %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
