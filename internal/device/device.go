package device

import "strings"

// Mountpoint is a filesystem path where one of the device's volumes is mounted
type Mountpoint struct {
	Path  string `json:"path"`
	Label string `json:"label,omitempty"`
}

// Raw is a device descriptor as returned by a listing source.
// Only Device is required; everything else is optional.
type Raw struct {
	Device      string       `json:"device"`
	Raw         string       `json:"raw,omitempty"`
	DisplayName string       `json:"displayName,omitempty"`
	Description string       `json:"description,omitempty"`
	Size        Size         `json:"size"`
	Mountpoints []Mountpoint `json:"mountpoints"`
	IsSystem    *bool        `json:"isSystem,omitempty"`
	IsRemovable *bool        `json:"isRemovable,omitempty"`
}

// Device is the normalized view of one storage device.
// A Device is not modified after New returns it.
type Device struct {
	// ID is the stable key used for set membership (raw path or handle)
	ID          string       `json:"id"`
	Path        string       `json:"device"`
	DisplayName string       `json:"displayName"`
	Description string       `json:"description"`
	Size        Size         `json:"size"`
	Mountpoints []Mountpoint `json:"mountpoints"`
	IsSystem    bool         `json:"isSystem"`
	IsRemovable bool         `json:"isRemovable"`
}

// New normalizes a raw descriptor into a Device
func New(r Raw) Device {
	mounts := make([]Mountpoint, 0, len(r.Mountpoints))
	for _, m := range r.Mountpoints {
		if m.Path == "" {
			continue
		}
		mounts = append(mounts, m)
	}

	id := r.Raw
	if id == "" {
		id = r.Device
	}

	return Device{
		ID:          id,
		Path:        r.Device,
		DisplayName: displayName(r, mounts),
		Description: r.Description,
		Size:        r.Size,
		Mountpoints: mounts,
		IsSystem:    r.IsSystem != nil && *r.IsSystem,
		IsRemovable: r.IsRemovable != nil && *r.IsRemovable,
	}
}

// displayName joins mount paths when there are any, otherwise it falls
// back to the supplied name and then to the device handle
func displayName(r Raw, mounts []Mountpoint) string {
	if len(mounts) > 0 {
		paths := make([]string, len(mounts))
		for i, m := range mounts {
			paths[i] = m.Path
		}
		return strings.Join(paths, ", ")
	}
	switch {
	case r.DisplayName != "":
		return r.DisplayName
	case r.Raw != "":
		return r.Raw
	default:
		return r.Device
	}
}

// MountPaths returns the mount point paths in listing order
func (d Device) MountPaths() []string {
	paths := make([]string, len(d.Mountpoints))
	for i, m := range d.Mountpoints {
		paths[i] = m.Path
	}
	return paths
}

// clone copies d so the mountpoints are not shared with a Set
func (d Device) clone() Device {
	if d.Mountpoints != nil {
		mounts := make([]Mountpoint, len(d.Mountpoints))
		copy(mounts, d.Mountpoints)
		d.Mountpoints = mounts
	}
	return d
}

// Bool returns a pointer to b, for building Raw descriptors
func Bool(b bool) *bool {
	return &b
}
