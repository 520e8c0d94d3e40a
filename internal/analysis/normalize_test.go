package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RejectsEmptyPaths(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		_, err := Normalize(raw, PlatformLinux)
		assert.ErrorIs(t, err, ErrInvalidMountData, "raw=%q", raw)
	}
}

func TestNormalize_Posix(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CanonicalKey
	}{
		{"plain", "/data/media", "/data/media"},
		{"trailing slash", "/data/media/", "/data/media"},
		{"double slash", "/data//media", "/data/media"},
		{"dot segments", "/data/./media/../media", "/data/media"},
		{"case preserved", "/Data/Media", "/Data/Media"},
		{"nas volume literal", "/volume1/docker/data", "/volume1/docker/data"},
		{"surrounding space", "  /data ", "/data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, PlatformLinux)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_WindowsDrivePaths(t *testing.T) {
	// On a mixed Windows/WSL2 host the drive form unifies with the
	// WSL2 mount form; elsewhere it stays in its own namespace.
	tests := []struct {
		name string
		raw  string
		hint Platform
		want CanonicalKey
	}{
		{"windows hint", `C:\Docker\Data`, PlatformWindows, "/mnt/c/docker/data"},
		{"wsl2 hint", `C:\Docker\Data`, PlatformWSL2, "/mnt/c/docker/data"},
		{"linux hint keeps namespace", `C:\Docker\Data`, PlatformLinux, "win:c:/docker/data"},
		{"unknown hint keeps namespace", `C:\Docker\Data`, PlatformUnknown, "win:c:/docker/data"},
		{"forward slashes", `C:/Docker/Data`, PlatformWSL2, "/mnt/c/docker/data"},
		{"bare drive", `D:\`, PlatformWSL2, "/mnt/d"},
		{"wsl form folds case on mixed host", "/mnt/C/Docker/Data", PlatformWSL2, "/mnt/c/docker/data"},
		{"wsl form literal on linux", "/mnt/c/Docker", PlatformLinux, "/mnt/c/Docker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.hint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_WSL2Equivalence(t *testing.T) {
	// The signature capability: both spellings of the same directory
	// produce the same key on a mixed host.
	a, err := Normalize(`C:\docker\data`, PlatformWSL2)
	require.NoError(t, err)
	b, err := Normalize("/mnt/c/docker/data", PlatformWSL2)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// ...but not on a plain Linux host.
	a, err = Normalize(`C:\docker\data`, PlatformLinux)
	require.NoError(t, err)
	b, err = Normalize("/mnt/c/docker/data", PlatformLinux)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNormalize_UNCAndNamedVolumes(t *testing.T) {
	got, err := Normalize(`\\nas\Media\tv`, PlatformWindows)
	require.NoError(t, err)
	assert.Equal(t, CanonicalKey("unc:nas/media/tv"), got)

	got, err = Normalize("mediavol", PlatformLinux)
	require.NoError(t, err)
	assert.Equal(t, CanonicalKey("mediavol"), got)
}

func TestNormalize_Idempotent(t *testing.T) {
	raws := []string{
		"/data/media/",
		"/Data/Media",
		`C:\Docker\Data`,
		"/mnt/c/Docker/Data",
		`\\nas\media`,
		"mediavol",
		"/volume1/data",
		"relative/path",
	}
	hints := []Platform{PlatformWindows, PlatformMac, PlatformLinux, PlatformWSL2, PlatformUnknown}
	for _, raw := range raws {
		for _, hint := range hints {
			once, err := Normalize(raw, hint)
			require.NoError(t, err)
			twice, err := Normalize(string(once), hint)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "raw=%q hint=%s", raw, hint)
		}
	}
}

func TestCanonicalKey_Ancestry(t *testing.T) {
	tests := []struct {
		a, b     CanonicalKey
		ancestor bool
	}{
		{"/data", "/data/tv", true},
		{"/data", "/database", false},
		{"/data", "/data", false},
		{"/", "/data", true},
		{"win:c:/data", "win:c:/data/tv", true},
		{"win:c:/data", "/data/tv", false},
		{"unc:nas/media", "unc:nas/media/tv", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ancestor, tt.a.IsAncestorOf(tt.b), "%s -> %s", tt.a, tt.b)
	}

	assert.True(t, CanonicalKey("/data").Related("/data/tv"))
	assert.True(t, CanonicalKey("/data/tv").Related("/data"))
	assert.True(t, CanonicalKey("/data").Related("/data"))
	assert.False(t, CanonicalKey("/data").Related("/media"))
}

func TestCommonRoot(t *testing.T) {
	tests := []struct {
		name string
		keys []CanonicalKey
		want CanonicalKey
	}{
		{"shared parent", []CanonicalKey{"/data/media/tv", "/data/downloads"}, "/data"},
		{"nested", []CanonicalKey{"/mnt/user/data", "/mnt/user/data/downloads"}, "/mnt/user/data"},
		{"single key", []CanonicalKey{"/data/media"}, "/data/media"},
		{"disjoint", []CanonicalKey{"/media/tv", "/downloads"}, ""},
		{"mixed scheme", []CanonicalKey{"/data", "win:c:/data"}, ""},
		{"windows", []CanonicalKey{"win:c:/data/tv", "win:c:/data/movies"}, "win:c:/data"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommonRoot(tt.keys))
		})
	}
}

func TestIsSingleRoot(t *testing.T) {
	assert.True(t, IsSingleRoot("/data"))
	assert.True(t, IsSingleRoot("/mnt/user"))
	assert.True(t, IsSingleRoot("/mnt/c"))
	assert.False(t, IsSingleRoot(""))
	assert.False(t, IsSingleRoot("/"))
	assert.False(t, IsSingleRoot("/mnt"))
	assert.False(t, IsSingleRoot("/media"))
}

func TestBackendOf(t *testing.T) {
	tests := []struct {
		key  CanonicalKey
		want Backend
	}{
		{"/data/media", BackendBind},
		{"/mnt/user/data", BackendUnraidShare},
		{"/mnt/cache/appdata", BackendUnraidShare},
		{"/mnt/disk3/media", BackendUnraidShare},
		{"/volume1/data", BackendNASVolume},
		{"/mnt/c/docker", BackendWindowsDrive},
		{"win:c:/docker", BackendWindowsDrive},
		{"unc:nas/media", BackendWindowsDrive},
		{"/var/lib/docker/volumes/x", BackendDockerInternal},
		{"mediavol", BackendNamedVolume},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BackendOf(tt.key), "key=%s", tt.key)
	}
}
