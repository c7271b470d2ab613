package projector

import (
	"errors"
	"fmt"
)

// ProjectErrorCode categorizes projection failures.
type ProjectErrorCode string

const (
	// ErrCodeDecodeFailed indicates the payload did not fit the tag's layout.
	ErrCodeDecodeFailed ProjectErrorCode = "DECODE_FAILED"

	// ErrCodeStoreFailed indicates the read model upsert failed.
	ErrCodeStoreFailed ProjectErrorCode = "STORE_FAILED"
)

// ProjectError reports why one frame was not projected.
type ProjectError struct {
	Code ProjectErrorCode
	Tag  uint32
	Err  error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s: tag %d: %v", e.Code, e.Tag, e.Err)
}

func (e *ProjectError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if err is a decode failure.
// Uses errors.As to handle wrapped errors.
func IsDecodeError(err error) bool {
	var pe *ProjectError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeDecodeFailed
	}
	return false
}

// IsStoreError returns true if err is a store failure.
// Uses errors.As to handle wrapped errors.
func IsStoreError(err error) bool {
	var pe *ProjectError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeStoreFailed
	}
	return false
}
