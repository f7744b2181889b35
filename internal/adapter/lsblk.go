package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sigreer/drivescan/internal/device"
)

// lsblkColumns are the columns requested from lsblk
const lsblkColumns = "NAME,KNAME,PATH,TYPE,SIZE,MODEL,VENDOR,RM,HOTPLUG,TRAN,MOUNTPOINT"

// systemMounts mark a disk as the one the running OS lives on
var systemMounts = map[string]bool{
	"/":         true,
	"/boot":     true,
	"/boot/efi": true,
	"/usr":      true,
	"[SWAP]":    true,
}

// commandOutput runs an external command; replaced in tests
var commandOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// lsblkOutput represents the JSON output from lsblk
type lsblkOutput struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

// lsblkDevice represents a single device in lsblk output
type lsblkDevice struct {
	Name       string        `json:"name"`
	Kname      string        `json:"kname"`
	Path       string        `json:"path"`
	Type       string        `json:"type"`
	Size       json.Number   `json:"size"`
	Model      string        `json:"model"`
	Vendor     string        `json:"vendor"`
	RM         flexBool      `json:"rm"`
	Hotplug    flexBool      `json:"hotplug"`
	Tran       string        `json:"tran"`
	Mountpoint string        `json:"mountpoint"`
	Children   []lsblkDevice `json:"children,omitempty"`
}

// flexBool decodes lsblk booleans, which older util-linux prints as "0"/"1"
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "1", "true":
		*b = true
	case "0", "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// ListBlockDevices lists whole disks using lsblk. It reports every disk and
// leaves system drive filtering to the adapter.
func ListBlockDevices(ctx context.Context, _ bool) ([]device.Raw, error) {
	out, err := commandOutput(ctx, "lsblk", "-J", "-b", "-o", lsblkColumns)
	if err != nil {
		return nil, fmt.Errorf("lsblk failed: %w", err)
	}
	return parseLsblk(out)
}

func parseLsblk(out []byte) ([]device.Raw, error) {
	var output lsblkOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return nil, fmt.Errorf("failed to parse lsblk output: %w", err)
	}

	var raws []device.Raw
	for _, dev := range output.Blockdevices {
		if dev.Type != "disk" {
			continue
		}
		raws = append(raws, rawFromLsblk(dev))
	}
	return raws, nil
}

func rawFromLsblk(dev lsblkDevice) device.Raw {
	path := dev.Path
	if path == "" {
		path = "/dev/" + dev.Kname
	}

	var mounts []device.Mountpoint
	collectMounts(dev, &mounts)

	isSystem := false
	for _, m := range mounts {
		if systemMounts[m.Path] {
			isSystem = true
			break
		}
	}

	raw := device.Raw{
		Device:      path,
		Raw:         path,
		Description: strings.TrimSpace(strings.TrimSpace(dev.Vendor) + " " + strings.TrimSpace(dev.Model)),
		Mountpoints: mounts,
		IsSystem:    device.Bool(isSystem),
		IsRemovable: device.Bool(bool(dev.RM) || bool(dev.Hotplug)),
	}
	if n, err := dev.Size.Int64(); err == nil {
		raw.Size = device.SizeBytes(n)
	}
	return raw
}

// collectMounts walks the device and its partitions in lsblk order
func collectMounts(dev lsblkDevice, mounts *[]device.Mountpoint) {
	if dev.Mountpoint != "" {
		*mounts = append(*mounts, device.Mountpoint{Path: dev.Mountpoint})
	}
	for _, child := range dev.Children {
		collectMounts(child, mounts)
	}
}
