package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dev(id string) Device {
	return New(Raw{Device: id})
}

func ids(devices []Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ID)
	}
	return out
}

func TestNewSet_UniqueIdentities(t *testing.T) {
	a := New(Raw{Device: "/dev/sda", Description: "first"})
	b := dev("/dev/sdb")
	a2 := New(Raw{Device: "/dev/sda", Description: "second"})

	s := NewSet(a, b, a2)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb"}, ids(s.Devices()))
	got, ok := s.Get("/dev/sda")
	assert.True(t, ok)
	assert.Equal(t, "second", got.Description)
}

func TestSet_Diff(t *testing.T) {
	prev := NewSet(dev("A"), dev("B"))
	next := NewSet(dev("B"), dev("C"))

	added, removed := prev.Diff(next)

	assert.Equal(t, []string{"C"}, ids(added))
	assert.Equal(t, []string{"A"}, ids(removed))
}

func TestSet_DiffByIdentityNotValue(t *testing.T) {
	prev := NewSet(New(Raw{Device: "/dev/sdb", Mountpoints: []Mountpoint{{Path: "/mnt/a"}}}))
	next := NewSet(New(Raw{Device: "/dev/sdb"}))

	added, removed := prev.Diff(next)

	assert.Empty(t, added)
	assert.Empty(t, removed)
}

func TestSet_NilIsEmpty(t *testing.T) {
	var s *Set
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("x"))
	assert.Empty(t, s.Devices())

	added, removed := s.Diff(NewSet(dev("x")))
	assert.Equal(t, []string{"x"}, ids(added))
	assert.Empty(t, removed)
}

func TestSet_DevicesDoNotShareMountpoints(t *testing.T) {
	s := NewSet(New(Raw{Device: "/dev/sdb", Mountpoints: []Mountpoint{{Path: "/mnt/a"}}}))

	out := s.Devices()
	out[0].Mountpoints[0].Path = "/mnt/changed"

	got, ok := s.Get("/dev/sdb")
	require.True(t, ok)
	assert.Equal(t, []string{"/mnt/a"}, got.MountPaths())

	got.Mountpoints[0].Path = "/mnt/changed"
	assert.Equal(t, []string{"/mnt/a"}, s.Devices()[0].MountPaths())
}
