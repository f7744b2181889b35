package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/sigreer/drivescan/internal/device"
)

// ErrNilListFunc is returned when an adapter is built without a listing source
var ErrNilListFunc = errors.New("adapter: listing function is nil")

// Adapter turns one device listing source into normalized devices.
// Implementations hold no population state; every Scan call lists afresh.
type Adapter interface {
	// Name identifies the adapter in logs and errors
	Name() string

	// Scan lists devices once. It returns either the full result or an
	// error, never a partial list.
	Scan(ctx context.Context) ([]device.Device, error)
}

// ListFunc lists raw device descriptors. includeSystem tells the source
// whether OS/boot drives are wanted; sources may ignore it.
type ListFunc func(ctx context.Context, includeSystem bool) ([]device.Raw, error)

// ListingError reports a failed listing call. Its message is the message of
// the underlying failure so callers see exactly what the source said.
type ListingError struct {
	Adapter string
	Err     error
}

func (e *ListingError) Error() string {
	return e.Err.Error()
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// Describe returns the message prefixed with the adapter name, for logs
func (e *ListingError) Describe() string {
	return fmt.Sprintf("%s: %v", e.Adapter, e.Err)
}
