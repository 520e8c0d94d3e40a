// Package analysis implements the path-mapping conflict analysis engine.
// It is a pure, synchronous computation over an immutable container
// snapshot: no I/O, no shared mutable state, safe to run concurrently
// across independent invocations.
package analysis

import (
	"sort"
	"time"
)

// Platform is the inferred host environment.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformMac     Platform = "mac"
	PlatformLinux   Platform = "linux"
	PlatformWSL2    Platform = "wsl2"
	PlatformUnknown Platform = "unknown"
)

// MountMode is the access mode of a volume mount.
type MountMode string

const (
	ModeRO MountMode = "ro"
	ModeRW MountMode = "rw"
)

// Mount is a single volume mapping as configured on a container.
type Mount struct {
	HostPath      string    `json:"hostPath"`
	ContainerPath string    `json:"containerPath"`
	Mode          MountMode `json:"mode"`
}

// Container is one container captured in a snapshot. Identity is ID.
type Container struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Image  string            `json:"image"`
	Mounts []Mount           `json:"mounts"`
	Env    map[string]string `json:"env,omitempty"`
}

// Meta carries host information reported by the Docker daemon, when
// available. All fields may be empty.
type Meta struct {
	OperatingSystem string `json:"operatingSystem,omitempty"`
	OSType          string `json:"osType,omitempty"`
	KernelVersion   string `json:"kernelVersion,omitempty"`
}

// Snapshot is the immutable input to one analysis invocation.
type Snapshot struct {
	Containers []Container `json:"containers"`
	Meta       Meta        `json:"meta"`
}

// Severity ranks a conflict. Critical dominates warning dominates info.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	}
	return 3
}

// ConflictType is the closed set of detectable mapping issues.
type ConflictType string

const (
	ConflictDestinationCollision ConflictType = "destination_collision"
	ConflictSplitRoot            ConflictType = "split_root"
	ConflictCrossFilesystem      ConflictType = "cross_filesystem"
	ConflictWSL2PathConversion   ConflictType = "wsl2_path_conversion"
	ConflictPermissionMismatch   ConflictType = "permission_mismatch"
	ConflictUIDGIDMismatch       ConflictType = "uid_gid_mismatch"
)

// Fix is the remediation guidance attached to a conflict.
type Fix struct {
	Description     string `json:"description"`
	Action          string `json:"action,omitempty"`
	SuggestedSource string `json:"suggestedSource,omitempty"`
}

// Conflict is one detected mapping issue. Instances are built through
// the typed constructors in conflict.go so every type carries exactly
// the fields it requires.
type Conflict struct {
	Type           ConflictType `json:"type"`
	Severity       Severity     `json:"severity"`
	Note           string       `json:"note"`
	Destination    string       `json:"destination,omitempty"`
	Containers     []string     `json:"containers"`
	Fix            Fix          `json:"fix"`
	SecondaryNotes []string     `json:"secondaryNotes,omitempty"`
}

// Priority ranks a recommendation.
type Priority string

const (
	// PriorityConnectivity is reserved for the service-layer "Connect
	// Docker Socket" recommendation; the engine itself only emits
	// high, medium and low.
	PriorityConnectivity Priority = "critical"
	PriorityHigh         Priority = "high"
	PriorityMedium       Priority = "medium"
	PriorityLow          Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityConnectivity:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Recommendation titles form a closed vocabulary; the dashboard keys
// its "learn more" links off these exact strings.
const (
	TitleResolveCritical   = "Resolve Critical Conflicts"
	TitleUnifyMappings     = "Unify Path Mappings"
	TitleSingleRoot        = "Single Root Data Directory"
	TitleConsistentBackend = "Consistent Storage Backend"
	TitleWSL2Conversion    = "WSL2 Path Conversion"
	TitleConsistentUIDGID  = "Consistent UID/GID"
	TitleAlignMountModes   = "Align Mount Modes"
	TitlePlatformUnknown   = "Platform Not Detected"
	TitleConnectDocker     = "Connect Docker Socket"
)

// Recommendation is one actionable piece of fix guidance.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action,omitempty"`
}

// Status is the overall health verdict of an analysis.
type Status string

const (
	StatusHealthy        Status = "healthy"
	StatusNeedsAttention Status = "needs_attention"
	StatusCritical       Status = "critical"
)

// StatusFor derives the overall status from a conflict list: critical
// dominates, any remaining conflict means needs_attention, otherwise
// healthy.
func StatusFor(conflicts []Conflict) Status {
	if len(conflicts) == 0 {
		return StatusHealthy
	}
	for _, c := range conflicts {
		if c.Severity == SeverityCritical {
			return StatusCritical
		}
	}
	return StatusNeedsAttention
}

// Summary is the headline block of a result.
type Summary struct {
	PlatformDetected   Platform `json:"platformDetected"`
	Status             Status   `json:"status"`
	ContainersAnalyzed int      `json:"containersAnalyzed"`
}

// ArrConfig describes the detected layout of one *arr application.
type ArrConfig struct {
	Container     string   `json:"container"`
	AppType       string   `json:"appType"`
	ConfigPath    string   `json:"configPath,omitempty"`
	RootFolder    string   `json:"rootFolder,omitempty"`
	DownloadPaths []string `json:"downloadPaths,omitempty"`
	Issues        []string `json:"issues,omitempty"`
}

// HardlinkLayout is the suggested single-root directory structure.
type HardlinkLayout struct {
	Root      string `json:"root"`
	Structure string `json:"structure"`
}

// Result is the immutable outcome of one analysis invocation.
type Result struct {
	Platform        Platform         `json:"platform"`
	Summary         Summary          `json:"summary"`
	Conflicts       []Conflict       `json:"conflicts"`
	Recommendations []Recommendation `json:"recommendations"`
	ArrConfigs      []ArrConfig      `json:"arrConfigs,omitempty"`
	HardlinkLayout  *HardlinkLayout  `json:"hardlinkLayout,omitempty"`
	AnalyzedAt      time.Time        `json:"analyzedAt"`
}

// sortedUnique returns a sorted copy of ids with duplicates removed.
func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
