package analysis

import (
	"fmt"
	"time"
)

// ManualPath is a user-supplied mount entry analyzed alongside the live
// snapshot, for hosts where part of the stack is not containerized.
type ManualPath struct {
	ContainerName string    `json:"containerName"`
	HostPath      string    `json:"hostPath"`
	ContainerPath string    `json:"containerPath"`
	Mode          MountMode `json:"mode,omitempty"`
}

// WithManualPaths returns a snapshot extended with pseudo-containers
// built from manual entries; they influence platform detection and
// conflict rules exactly like real mounts.
func WithManualPaths(snap Snapshot, entries []ManualPath) Snapshot {
	if len(entries) == 0 {
		return snap
	}
	byName := make(map[string]*Container)
	var order []string
	for _, e := range entries {
		name := e.ContainerName
		if name == "" {
			name = "manual"
		}
		c, ok := byName[name]
		if !ok {
			c = &Container{ID: "manual:" + name, Name: name}
			byName[name] = c
			order = append(order, name)
		}
		mode := e.Mode
		if mode == "" {
			mode = ModeRW
		}
		c.Mounts = append(c.Mounts, Mount{
			HostPath:      e.HostPath,
			ContainerPath: e.ContainerPath,
			Mode:          mode,
		})
	}

	out := snap
	out.Containers = append([]Container{}, snap.Containers...)
	for _, name := range order {
		out.Containers = append(out.Containers, *byName[name])
	}
	return out
}

// Analyze runs the full pipeline over one snapshot: platform detection,
// normalization, graph clustering, conflict rules, recommendations.
// It is deterministic for a given snapshot (ordering included) and
// never fails: degenerate input produces an empty, healthy result.
func Analyze(snap Snapshot) *Result {
	var allMounts []Mount
	for _, c := range snap.Containers {
		allMounts = append(allMounts, c.Mounts...)
	}

	platform := DetectPlatform(snap.Meta, allMounts)
	graph := BuildGraph(snap.Containers, platform)

	conflicts := Detect(graph, platform)
	conflicts = sortConflicts(append(conflicts, CheckUIDGID(snap.Containers)...))
	recommendations := Recommend(conflicts, platform)

	result := &Result{
		Platform: platform,
		Summary: Summary{
			PlatformDetected:   platform,
			Status:             StatusFor(conflicts),
			ContainersAnalyzed: len(snap.Containers),
		},
		Conflicts:       conflicts,
		Recommendations: recommendations,
		ArrConfigs:      DetectArrConfigs(snap.Containers),
		AnalyzedAt:      time.Now().UTC(),
	}
	if len(allMounts) > 0 {
		result.HardlinkLayout = SuggestLayout(graph, platform)
	}
	return result
}

// Describe renders a one-line summary for logs.
func (r *Result) Describe() string {
	return fmt.Sprintf("platform=%s status=%s containers=%d conflicts=%d recommendations=%d",
		r.Platform, r.Summary.Status, r.Summary.ContainersAnalyzed, len(r.Conflicts), len(r.Recommendations))
}
