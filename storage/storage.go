// Package storage provides the blob store backing file contents. Metadata
// lives in the relational store; blobs are keyed by (owner, filename) where
// owner is the account UUID.
package storage

import "errors"

// ErrExists is returned by Create when a blob with that name already exists
// for the owner. Create never overwrites.
var ErrExists = errors.New("blob already exists")

// ErrNotExist is returned when the requested blob is missing.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore stores raw file bytes outside the metadata store.
type BlobStore interface {
	// Create writes a new blob with create-if-absent semantics. Two
	// concurrent creates of the same name race safely: exactly one wins,
	// the other observes ErrExists.
	Create(owner, filename string, data []byte) error
	// Read returns the full contents of a blob.
	Read(owner, filename string) ([]byte, error)
	// Remove deletes a single blob.
	Remove(owner, filename string) error
	// RemoveAll deletes every blob of an owner, and the owner's directory.
	RemoveAll(owner string) error
}
