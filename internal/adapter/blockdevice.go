package adapter

import (
	"context"

	"github.com/sigreer/drivescan/internal/device"
)

// BlockDeviceAdapter wraps a block device listing source
type BlockDeviceAdapter struct {
	list          ListFunc
	includeSystem func() bool
}

// NewBlockDeviceAdapter creates an adapter over list. includeSystem is
// consulted on every scan; nil means system drives are always excluded.
func NewBlockDeviceAdapter(list ListFunc, includeSystem func() bool) (*BlockDeviceAdapter, error) {
	if list == nil {
		return nil, ErrNilListFunc
	}
	if includeSystem == nil {
		includeSystem = func() bool { return false }
	}
	return &BlockDeviceAdapter{
		list:          list,
		includeSystem: includeSystem,
	}, nil
}

// Name returns the adapter identifier
func (a *BlockDeviceAdapter) Name() string {
	return "blockdevice"
}

// Scan calls the listing source once, normalizes every descriptor and drops
// system drives unless they are wanted
func (a *BlockDeviceAdapter) Scan(ctx context.Context) ([]device.Device, error) {
	include := a.includeSystem()

	raws, err := a.list(ctx, include)
	if err != nil {
		return nil, &ListingError{Adapter: a.Name(), Err: err}
	}

	devices := make([]device.Device, 0, len(raws))
	for _, r := range raws {
		d := device.New(r)
		if d.IsSystem && !include {
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}
