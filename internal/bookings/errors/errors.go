package errors

import "errors"

var (
	ErrTimeConflict = errors.New("booking time conflicts with existing booking")

	ErrCancelled = errors.New("booking is cancelled")

	ErrConcurrentMove = errors.New("booking was moved to another resource concurrently")
)
