package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detect(t *testing.T, platform Platform, containers ...Container) []Conflict {
	t.Helper()
	return Detect(BuildGraph(containers, platform), platform)
}

func TestDetect_DestinationCollision(t *testing.T) {
	conflicts := detect(t, PlatformLinux,
		ctr("aaa", "app-x", Mount{HostPath: "/mnt/user/data/media", ContainerPath: "/data", Mode: ModeRW}),
		ctr("bbb", "app-y", Mount{HostPath: "/mnt/user/media", ContainerPath: "/data", Mode: ModeRW}),
	)

	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, ConflictDestinationCollision, c.Type)
	assert.Equal(t, SeverityCritical, c.Severity)
	assert.Equal(t, "/data", c.Destination)
	assert.Equal(t, []string{"aaa", "bbb"}, c.Containers)
	assert.Equal(t, "/mnt/user/data/media", c.Fix.SuggestedSource)
}

func TestDetect_SameSourceSameDestinationIsHealthy(t *testing.T) {
	conflicts := detect(t, PlatformLinux,
		ctr("aaa", "app-x", Mount{HostPath: "/mnt/user/data", ContainerPath: "/data", Mode: ModeRW}),
		ctr("bbb", "app-y", Mount{HostPath: "/mnt/user/data", ContainerPath: "/data", Mode: ModeRW}),
	)
	assert.Empty(t, conflicts)
}

func TestDetect_NestedUnderSingleRootIsHealthy(t *testing.T) {
	conflicts := detect(t, PlatformLinux,
		ctr("aaa", "app-x", Mount{HostPath: "/mnt/user/data", ContainerPath: "/data", Mode: ModeRW}),
		ctr("bbb", "app-y", Mount{HostPath: "/mnt/user/data/downloads", ContainerPath: "/downloads", Mode: ModeRW}),
	)
	assert.Empty(t, conflicts)
}

func TestDetect_SplitRoot(t *testing.T) {
	conflicts := detect(t, PlatformLinux,
		ctr("son", "sonarr", Mount{HostPath: "/srv/media/tv", ContainerPath: "/tv", Mode: ModeRW}),
		ctr("qbt", "qbittorrent", Mount{HostPath: "/home/user/downloads", ContainerPath: "/downloads", Mode: ModeRW}),
	)

	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, ConflictSplitRoot, c.Type)
	assert.Equal(t, SeverityCritical, c.Severity)
	assert.Equal(t, []string{"qbt", "son"}, c.Containers)
	assert.Contains(t, c.Note, "/home")
	assert.Contains(t, c.Note, "/srv")
}

func TestDetect_SplitRootDowngradedWhenWSL2Convertible(t *testing.T) {
	// The roots only diverge because one container spells the drive
	// the Windows way; under a wsl2 reading they unify, so on an
	// undetected host this is a warning, not critical.
	conflicts := detect(t, PlatformUnknown,
		ctr("son", "sonarr", Mount{HostPath: `C:\docker\data\media`, ContainerPath: "/tv", Mode: ModeRW}),
		ctr("qbt", "qbittorrent", Mount{HostPath: "/mnt/c/docker/data/downloads", ContainerPath: "/downloads", Mode: ModeRW}),
	)

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictSplitRoot, conflicts[0].Type)
	assert.Equal(t, SeverityWarning, conflicts[0].Severity)
}

func TestDetect_CrossFilesystemFoldsIntoSplitRoot(t *testing.T) {
	// Same container group, same (empty) destination: the tie-break
	// keeps the critical split-root and folds the cross-filesystem
	// warning into its secondary notes.
	conflicts := detect(t, PlatformLinux,
		ctr("son", "sonarr", Mount{HostPath: "/mnt/user/media", ContainerPath: "/media", Mode: ModeRW}),
		ctr("qbt", "qbittorrent", Mount{HostPath: "/volume1/downloads", ContainerPath: "/downloads", Mode: ModeRW}),
	)

	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, ConflictSplitRoot, c.Type)
	assert.Equal(t, SeverityCritical, c.Severity)
	require.Len(t, c.SecondaryNotes, 1)
	assert.Contains(t, c.SecondaryNotes[0], "storage backends")
}

func TestDetect_WSL2PathConversion(t *testing.T) {
	conflicts := detect(t, PlatformWindows,
		ctr("son", "sonarr", Mount{HostPath: `C:\media`, ContainerPath: "/tv", Mode: ModeRW}),
		ctr("rad", "radarr", Mount{HostPath: "/home/user/movies", ContainerPath: "/movies", Mode: ModeRW}),
	)

	var conv *Conflict
	for i := range conflicts {
		if conflicts[i].Type == ConflictWSL2PathConversion {
			conv = &conflicts[i]
		}
	}
	require.NotNil(t, conv, "expected a wsl2_path_conversion conflict")
	assert.Equal(t, SeverityWarning, conv.Severity)
	assert.Equal(t, []string{"son"}, conv.Containers)
	assert.Contains(t, conv.Fix.Action, "/mnt/c/media")
}

func TestDetect_WSL2ConversionSkippedWhenPeerResolves(t *testing.T) {
	// Both spellings normalize into one subtree on a wsl2 host, so
	// nothing is flagged.
	conflicts := detect(t, PlatformWSL2,
		ctr("son", "sonarr", Mount{HostPath: `C:\docker\data`, ContainerPath: "/data", Mode: ModeRW}),
		ctr("qbt", "qbittorrent", Mount{HostPath: "/mnt/c/docker/data/downloads", ContainerPath: "/downloads", Mode: ModeRW}),
	)
	assert.Empty(t, conflicts)
}

func TestDetect_PermissionMismatch(t *testing.T) {
	conflicts := detect(t, PlatformLinux,
		ctr("aaa", "app-a", Mount{HostPath: "/srv/share", ContainerPath: "/shared", Mode: ModeRW}),
		ctr("bbb", "app-b", Mount{HostPath: "/srv/share", ContainerPath: "/shared", Mode: ModeRO}),
	)

	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, ConflictPermissionMismatch, c.Type)
	assert.Equal(t, SeverityInfo, c.Severity)
	assert.Equal(t, "/shared", c.Destination)
	assert.Equal(t, []string{"aaa", "bbb"}, c.Containers)
}

func TestDetect_SingleContainerSetsAreSkipped(t *testing.T) {
	// One container mounting two unrelated roots is its own business.
	conflicts := detect(t, PlatformLinux,
		ctr("aaa", "app-a",
			Mount{HostPath: "/srv/media", ContainerPath: "/media", Mode: ModeRW},
			Mount{HostPath: "/home/user/downloads", ContainerPath: "/downloads", Mode: ModeRW}),
	)
	assert.Empty(t, conflicts)
}

func TestDetect_Ordering(t *testing.T) {
	// Severity descending, then container ids ascending.
	conflicts := detect(t, PlatformLinux,
		// ro/rw disagreement only: info.
		ctr("aaa", "app-a", Mount{HostPath: "/srv/share", ContainerPath: "/shared", Mode: ModeRO}),
		ctr("bbb", "app-b", Mount{HostPath: "/srv/share", ContainerPath: "/shared", Mode: ModeRW}),
		// Collision: critical.
		ctr("ccc", "app-c", Mount{HostPath: "/pool/one", ContainerPath: "/data", Mode: ModeRW}),
		ctr("ddd", "app-d", Mount{HostPath: "/tank/two", ContainerPath: "/data", Mode: ModeRW}),
	)

	require.NotEmpty(t, conflicts)
	assert.Equal(t, SeverityCritical, conflicts[0].Severity)
	for i := 1; i < len(conflicts); i++ {
		assert.LessOrEqual(t,
			severityOrder(conflicts[i-1].Severity), severityOrder(conflicts[i].Severity),
			"conflict %d out of order", i)
	}
}

func severityOrder(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}
