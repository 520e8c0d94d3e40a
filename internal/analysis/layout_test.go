package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suggest(t *testing.T, platform Platform, containers ...Container) *HardlinkLayout {
	t.Helper()
	return SuggestLayout(BuildGraph(containers, platform), platform)
}

func TestSuggestLayout_ClimbsPastMediaBuckets(t *testing.T) {
	layout := suggest(t, PlatformLinux,
		ctr("son", "sonarr", Mount{HostPath: "/data/media/tv", ContainerPath: "/tv"}),
	)
	require.NotNil(t, layout)
	assert.Equal(t, "/data", layout.Root)
}

func TestSuggestLayout_UnraidDataRoot(t *testing.T) {
	layout := suggest(t, PlatformLinux,
		ctr("son", "sonarr",
			Mount{HostPath: "/mnt/user/data/media", ContainerPath: "/media"},
			Mount{HostPath: "/mnt/user/data/downloads", ContainerPath: "/downloads"}),
	)
	require.NotNil(t, layout)
	assert.Equal(t, "/mnt/user/data", layout.Root)
}

func TestSuggestLayout_FallbackOnDisjointRoots(t *testing.T) {
	layout := suggest(t, PlatformLinux,
		ctr("son", "sonarr", Mount{HostPath: "/srv/media", ContainerPath: "/media"}),
		ctr("qbt", "qbittorrent", Mount{HostPath: "/home/user/downloads", ContainerPath: "/downloads"}),
	)
	require.NotNil(t, layout)
	assert.Equal(t, "/data", layout.Root)
}

func TestSuggestLayout_SynologyFallback(t *testing.T) {
	layout := suggest(t, PlatformLinux,
		ctr("son", "sonarr", Mount{HostPath: "/volume1/media/tv", ContainerPath: "/tv"}),
		ctr("qbt", "qbittorrent", Mount{HostPath: "/volume2/downloads", ContainerPath: "/downloads"}),
	)
	require.NotNil(t, layout)
	assert.Equal(t, "/volume1/data", layout.Root)
}

func TestSuggestLayout_StructureTree(t *testing.T) {
	layout := suggest(t, PlatformLinux,
		ctr("son", "sonarr", Mount{HostPath: "/data/media/tv", ContainerPath: "/tv"}),
	)
	require.NotNil(t, layout)
	assert.True(t, strings.HasPrefix(layout.Structure, layout.Root+"\n"))
	for _, dir := range []string{"downloads/", "complete/", "incomplete/", "media/", "movies/", "tv/"} {
		assert.Contains(t, layout.Structure, dir)
	}
}
