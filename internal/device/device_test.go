package device

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisplayName(t *testing.T) {
	tests := []struct {
		name   string
		raw    Raw
		expect string
	}{
		{
			name:   "no mountpoints uses device path",
			raw:    Raw{Device: `\\.\PHYSICALDRIVE2`},
			expect: `\\.\PHYSICALDRIVE2`,
		},
		{
			name:   "single mountpoint",
			raw:    Raw{Device: `\\.\PHYSICALDRIVE3`, Raw: `\\.\PHYSICALDRIVE3`, Mountpoints: []Mountpoint{{Path: "F:"}}},
			expect: "F:",
		},
		{
			name: "multiple mountpoints are joined in order",
			raw: Raw{
				Device:      `\\.\PHYSICALDRIVE3`,
				Mountpoints: []Mountpoint{{Path: "F:"}, {Path: "G:"}, {Path: "H:"}},
			},
			expect: "F:, G:, H:",
		},
		{
			name:   "supplied name used without mountpoints",
			raw:    Raw{Device: "/dev/sdb", DisplayName: "USB Stick"},
			expect: "USB Stick",
		},
		{
			name:   "raw handle preferred over device path",
			raw:    Raw{Device: "/dev/disk2", Raw: "/dev/rdisk2"},
			expect: "/dev/rdisk2",
		},
		{
			name:   "empty mount paths are ignored",
			raw:    Raw{Device: "/dev/sdc", Mountpoints: []Mountpoint{{Path: ""}}},
			expect: "/dev/sdc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, New(tt.raw).DisplayName)
		})
	}
}

func TestNew_Fields(t *testing.T) {
	d := New(Raw{
		Device:      "/dev/sdb",
		Description: "Foo",
		Size:        SizeText("14G"),
		Mountpoints: []Mountpoint{{Path: "/mnt/foo"}},
		IsSystem:    Bool(false),
		IsRemovable: Bool(true),
	})

	assert.Equal(t, "/dev/sdb", d.ID)
	assert.Equal(t, "/dev/sdb", d.Path)
	assert.Equal(t, "/mnt/foo", d.DisplayName)
	assert.Equal(t, "Foo", d.Description)
	assert.Equal(t, "14G", d.Size.String())
	assert.Equal(t, []string{"/mnt/foo"}, d.MountPaths())
	assert.False(t, d.IsSystem)
	assert.True(t, d.IsRemovable)
}

func TestNew_FlagsDefaultFalse(t *testing.T) {
	d := New(Raw{Device: "/dev/sdz"})
	assert.False(t, d.IsSystem)
	assert.False(t, d.IsRemovable)
	assert.NotNil(t, d.Mountpoints)
}

func TestNew_IdentityPrefersRaw(t *testing.T) {
	assert.Equal(t, "/dev/rdisk4", New(Raw{Device: "/dev/disk4", Raw: "/dev/rdisk4"}).ID)
	assert.Equal(t, "/dev/disk4", New(Raw{Device: "/dev/disk4"}).ID)
}

func TestRaw_DecodeDrivelistJSON(t *testing.T) {
	input := `[
		{"device": "/dev/sda", "description": "WDC WD10JPVX-75J", "size": "931.5G",
		 "mountpoints": [{"path": "/"}], "isSystem": true},
		{"device": "/dev/sdb", "size": 15376000000, "mountpoints": []}
	]`

	var raws []Raw
	require.NoError(t, json.Unmarshal([]byte(input), &raws))
	require.Len(t, raws, 2)

	first := New(raws[0])
	assert.True(t, first.IsSystem)
	assert.False(t, first.IsRemovable)
	assert.Equal(t, "931.5G", first.Size.String())

	n, ok := New(raws[1]).Size.Bytes()
	assert.True(t, ok)
	assert.Equal(t, int64(15376000000), n)
}

func TestSize(t *testing.T) {
	assert.True(t, Size{}.IsZero())
	assert.Equal(t, "1.0 KiB", SizeBytes(1024).String())

	out, err := json.Marshal(SizeBytes(512))
	require.NoError(t, err)
	assert.Equal(t, "512", string(out))

	out, err = json.Marshal(SizeText("14G"))
	require.NoError(t, err)
	assert.Equal(t, `"14G"`, string(out))

	var s Size
	assert.Error(t, json.Unmarshal([]byte("true"), &s))
}
