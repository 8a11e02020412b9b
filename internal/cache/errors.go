package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrMiss is returned by a Backend when the key does not exist or has expired.
	ErrMiss = errors.New("cache miss")

	// ErrUnavailable wraps every connectivity failure of a backend. The Client
	// swallows errors of this class; callers never see them.
	ErrUnavailable = errors.New("cache unavailable")

	// ErrDisabled is returned by the disabled backend. It is a form of
	// ErrUnavailable that is not worth logging.
	ErrDisabled = fmt.Errorf("%w: cache disabled", ErrUnavailable)

	// ErrMalformedKey is returned for keys or patterns that fail validation.
	ErrMalformedKey = errors.New("malformed cache key")

	// ErrWrongType is returned when an operation targets a key holding the
	// wrong kind of value, such as SADD on a counter.
	ErrWrongType = errors.New("cache value has wrong type")
)

func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
