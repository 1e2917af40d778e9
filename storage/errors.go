package storage

import (
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

var (
	// ErrNotFound reports that no document exists under the requested id.
	ErrNotFound = errors.New("storage: document not found")
	// ErrExists reports that a create collided with an existing id.
	ErrExists = errors.New("storage: document already exists")
	// ErrConflict reports that a replace lost the optimistic concurrency
	// check: the document changed since it was read.
	ErrConflict = errors.New("storage: concurrent modification")
)

// mapError converts transport-level response errors into the store's
// sentinel taxonomy. Anything unrecognized propagates unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	switch respErr.StatusCode {
	case 404:
		return ErrNotFound
	case 409:
		return ErrExists
	case 412:
		return ErrConflict
	}
	return err
}
