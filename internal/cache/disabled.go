package cache

import (
	"context"
	"time"
)

// DisabledBackend answers every operation with ErrDisabled. It is used when
// caching is turned off, so the application runs purely on its stores.
type DisabledBackend struct{}

// NewDisabledBackend returns a backend that is never available.
func NewDisabledBackend() *DisabledBackend {
	return &DisabledBackend{}
}

func (DisabledBackend) Get(context.Context, string) ([]byte, error) { return nil, ErrDisabled }

func (DisabledBackend) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return ErrDisabled
}

func (DisabledBackend) Delete(context.Context, ...string) error { return ErrDisabled }

func (DisabledBackend) DeletePattern(context.Context, string) (int, error) { return 0, ErrDisabled }

func (DisabledBackend) Expire(context.Context, string, time.Duration) error { return ErrDisabled }

func (DisabledBackend) Exists(context.Context, string) (bool, error) { return false, ErrDisabled }

func (DisabledBackend) Incr(context.Context, string) (int64, error) { return 0, ErrDisabled }

func (DisabledBackend) Decr(context.Context, string) (int64, error) { return 0, ErrDisabled }

func (DisabledBackend) SAdd(context.Context, string, ...string) error { return ErrDisabled }

func (DisabledBackend) SRem(context.Context, string, ...string) error { return ErrDisabled }

func (DisabledBackend) SIsMember(context.Context, string, string) (bool, error) {
	return false, ErrDisabled
}

func (DisabledBackend) SCard(context.Context, string) (int64, error) { return 0, ErrDisabled }

func (DisabledBackend) Ping(context.Context) error { return ErrDisabled }

func (DisabledBackend) Close() error { return nil }
