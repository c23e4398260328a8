/*
Package contentstore abstracts the remote store holding portfolio content:
markdown entries, images committed alongside them, and the generated index
artifacts. The production implementation is backed by the GitHub contents
API; tests use the in-memory store.
*/
package contentstore

import (
	"context"
	"fmt"
)

var (
	ErrNotFound         = fmt.Errorf("content not found")
	ErrConflict         = fmt.Errorf("write conflict: revision is stale")
	ErrStoreUnavailable = fmt.Errorf("content store unavailable")
)

type ItemType string

const (
	ItemTypeFile ItemType = "file"
	ItemTypeDir  ItemType = "dir"
)

/*
Item describes one child of a listed directory. Revision is the store's
opaque revision marker for the item (a blob SHA on GitHub) and is required
when deleting it.
*/
type Item struct {
	Name     string
	Path     string
	Type     ItemType
	Revision string
}

type WriteResult struct {
	Revision string
}

/*
ContentStore is the contract the pipeline depends on. Writes are guarded by
optimistic concurrency: pass the revision read just before writing, or an
empty string when the destination does not yet exist. A stale revision
surfaces as ErrConflict; no retry is attempted here.
*/
type ContentStore interface {
	List(ctx context.Context, path string) ([]Item, error)
	FetchContent(ctx context.Context, path string) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	Revision(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path string, data []byte, expectedRevision, message string) (WriteResult, error)
	Delete(ctx context.Context, path, revision, message string) error
}
