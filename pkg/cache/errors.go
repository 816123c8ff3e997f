package cache

import (
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// backendError wraps a storage failure with the backend and operation.
func backendError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return ferrors.Wrap(ferrors.ErrCodeInternal, err, "%s cache: %s", backend, op)
}
