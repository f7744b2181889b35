package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lsblkFixture = `{
   "blockdevices": [
      {"name":"sda", "kname":"sda", "path":"/dev/sda", "type":"disk", "size":500107862016,
       "model":"Samsung SSD 860 ", "vendor":"ATA     ", "rm":false, "hotplug":false, "tran":"sata", "mountpoint":null,
         "children": [
            {"name":"sda1", "kname":"sda1", "path":"/dev/sda1", "type":"part", "size":536870912,
             "model":null, "vendor":null, "rm":false, "hotplug":false, "tran":null, "mountpoint":"/boot/efi"},
            {"name":"sda2", "kname":"sda2", "path":"/dev/sda2", "type":"part", "size":499570991104,
             "model":null, "vendor":null, "rm":false, "hotplug":false, "tran":null, "mountpoint":"/"}
         ]
      },
      {"name":"sdb", "kname":"sdb", "path":"/dev/sdb", "type":"disk", "size":"15376000000",
       "model":"Cruzer Blade", "vendor":"SanDisk", "rm":"1", "hotplug":"1", "tran":"usb", "mountpoint":null,
         "children": [
            {"name":"sdb1", "kname":"sdb1", "path":"/dev/sdb1", "type":"part", "size":"15374000000",
             "model":null, "vendor":null, "rm":"1", "hotplug":"1", "tran":null, "mountpoint":"/media/user/STICK"}
         ]
      },
      {"name":"loop0", "kname":"loop0", "path":"/dev/loop0", "type":"loop", "size":4096,
       "model":null, "vendor":null, "rm":false, "hotplug":false, "tran":null, "mountpoint":"/snap/core/1"},
      {"name":"nvme0n1", "kname":"nvme0n1", "path":"/dev/nvme0n1", "type":"disk", "size":1000204886016,
       "model":"WD Blue SN570", "vendor":null, "rm":false, "hotplug":false, "tran":"nvme", "mountpoint":null}
   ]
}`

func withCommandOutput(t *testing.T, fn func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	t.Helper()
	orig := commandOutput
	commandOutput = fn
	t.Cleanup(func() { commandOutput = orig })
}

func TestListBlockDevices(t *testing.T) {
	var gotName string
	var gotArgs []string
	withCommandOutput(t, func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte(lsblkFixture), nil
	})

	raws, err := ListBlockDevices(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, "lsblk", gotName)
	assert.Contains(t, gotArgs, "-J")
	assert.Contains(t, gotArgs, "-b")

	require.Len(t, raws, 3)

	sda := raws[0]
	assert.Equal(t, "/dev/sda", sda.Device)
	assert.Equal(t, "ATA Samsung SSD 860", sda.Description)
	assert.True(t, *sda.IsSystem)
	assert.False(t, *sda.IsRemovable)
	require.Len(t, sda.Mountpoints, 2)
	assert.Equal(t, "/boot/efi", sda.Mountpoints[0].Path)
	assert.Equal(t, "/", sda.Mountpoints[1].Path)
	n, ok := sda.Size.Bytes()
	assert.True(t, ok)
	assert.Equal(t, int64(500107862016), n)

	sdb := raws[1]
	assert.Equal(t, "SanDisk Cruzer Blade", sdb.Description)
	assert.False(t, *sdb.IsSystem)
	assert.True(t, *sdb.IsRemovable)
	n, ok = sdb.Size.Bytes()
	assert.True(t, ok)
	assert.Equal(t, int64(15376000000), n)

	nvme := raws[2]
	assert.Equal(t, "WD Blue SN570", nvme.Description)
	assert.Empty(t, nvme.Mountpoints)
}

func TestListBlockDevices_ThroughAdapter(t *testing.T) {
	withCommandOutput(t, func(context.Context, string, ...string) ([]byte, error) {
		return []byte(lsblkFixture), nil
	})

	a, err := NewBlockDeviceAdapter(ListBlockDevices, nil)
	require.NoError(t, err)

	devices, err := a.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "/media/user/STICK", devices[0].DisplayName)
	assert.Equal(t, "/dev/nvme0n1", devices[1].DisplayName)
}

func TestListBlockDevices_CommandFailure(t *testing.T) {
	withCommandOutput(t, func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exec: \"lsblk\": executable file not found in $PATH")
	})

	raws, err := ListBlockDevices(context.Background(), false)
	assert.Nil(t, raws)
	assert.ErrorContains(t, err, "lsblk failed")
}

func TestListBlockDevices_BadJSON(t *testing.T) {
	withCommandOutput(t, func(context.Context, string, ...string) ([]byte, error) {
		return []byte("{not json"), nil
	})

	_, err := ListBlockDevices(context.Background(), false)
	assert.ErrorContains(t, err, "failed to parse lsblk output")
}
