package analysis

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Detect runs the rule set over every cooperating set and returns the
// deduplicated, deterministically ordered conflict list. Rule
// evaluation across sets is parallel; ordering is imposed afterwards,
// never inherited from evaluation order.
func Detect(g *Graph, platform Platform) []Conflict {
	results := make([][]Conflict, len(g.Sets))

	var eg errgroup.Group
	for i := range g.Sets {
		eg.Go(func() error {
			set := g.Sets[i]
			if len(set.Containers) < 2 {
				return nil
			}
			var found []Conflict
			found = append(found, destinationCollisions(set)...)
			found = append(found, splitRoots(set, platform)...)
			found = append(found, crossFilesystems(set)...)
			found = append(found, wsl2Conversions(set, platform)...)
			found = append(found, permissionMismatches(set)...)
			results[i] = found
			return nil
		})
	}
	_ = eg.Wait() // rules never error

	var all []Conflict
	for _, r := range results {
		all = append(all, r...)
	}
	return finalize(all)
}

// finalize applies the tie-break (one conflict per container group and
// destination, highest severity wins, the rest fold into secondary
// notes) and the output ordering.
func finalize(conflicts []Conflict) []Conflict {
	byGroup := make(map[string]int)
	var out []Conflict
	for _, c := range conflicts {
		key := strings.Join(c.Containers, ",") + "|" + c.Destination
		if i, ok := byGroup[key]; ok {
			if c.Severity.rank() < out[i].Severity.rank() {
				c.SecondaryNotes = append(c.SecondaryNotes, out[i].Note)
				c.SecondaryNotes = append(c.SecondaryNotes, out[i].SecondaryNotes...)
				out[i] = c
			} else {
				out[i].SecondaryNotes = append(out[i].SecondaryNotes, c.Note)
			}
			continue
		}
		byGroup[key] = len(out)
		out = append(out, c)
	}
	return sortConflicts(out)
}

// sortConflicts applies the output ordering: severity descending, then
// the involved container ids ascending, then type and destination for
// full determinism.
func sortConflicts(conflicts []Conflict) []Conflict {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Severity.rank() != conflicts[j].Severity.rank() {
			return conflicts[i].Severity.rank() < conflicts[j].Severity.rank()
		}
		ci, cj := strings.Join(conflicts[i].Containers, ","), strings.Join(conflicts[j].Containers, ",")
		if ci != cj {
			return ci < cj
		}
		if conflicts[i].Type != conflicts[j].Type {
			return conflicts[i].Type < conflicts[j].Type
		}
		return conflicts[i].Destination < conflicts[j].Destination
	})
	return conflicts
}

// destinationCollisions flags different, non-equivalent host sources
// mounted at the identical container-side path.
func destinationCollisions(set CooperatingSet) []Conflict {
	byDest := groupByDest(set)
	var out []Conflict
	for _, dest := range sortedDests(byDest) {
		refs := byDest[dest]
		keys := make(map[CanonicalKey]struct{})
		var ids []string
		for _, r := range refs {
			keys[r.Key] = struct{}{}
			ids = append(ids, r.ContainerID)
		}
		if len(keys) < 2 || len(sortedUnique(ids)) < 2 {
			continue
		}
		out = append(out, newDestinationCollision(dest, ids, refs))
	}
	return out
}

func newDestinationCollision(dest string, ids []string, refs []MountRef) Conflict {
	suggested := preferredSource(refs)
	return Conflict{
		Type:        ConflictDestinationCollision,
		Severity:    SeverityCritical,
		Note:        fmt.Sprintf("%d containers mount different host paths at %s, so each sees different data there", len(sortedUnique(ids)), dest),
		Destination: dest,
		Containers:  sortedUnique(ids),
		Fix: Fix{
			Description:     fmt.Sprintf("Standardize on a single host source for %s across all cooperating containers", dest),
			Action:          fmt.Sprintf("Edit the compose mounts so every container uses %s:%s", suggested, dest),
			SuggestedSource: suggested,
		},
	}
}

// preferredSource picks the host path to standardize on: a /data-style
// bind first, then an unraid share, then the lexicographically
// smallest path, so the suggestion is stable across runs.
func preferredSource(refs []MountRef) string {
	hosts := make([]string, 0, len(refs))
	for _, r := range refs {
		hosts = append(hosts, r.HostPath)
	}
	sort.Strings(hosts)
	for _, h := range hosts {
		if strings.HasPrefix(h, "/data/") || h == "/data" {
			return h
		}
	}
	for _, h := range hosts {
		if unraidRe.MatchString(h) {
			return h
		}
	}
	return hosts[0]
}

// splitRoots flags cooperating mounts that no single host root covers.
func splitRoots(set CooperatingSet, platform Platform) []Conflict {
	if len(set.Keys) < 2 {
		return nil
	}
	if IsSingleRoot(CommonRoot(set.Keys)) {
		return nil
	}

	severity := SeverityCritical
	if rootsConvertible(set) && platform != PlatformWindows && platform != PlatformWSL2 {
		// The divergent roots would unify under the WSL2 rule; the
		// host just was not detected as a mixed one.
		severity = SeverityWarning
	}

	ids := containerIDs(set)
	roots := topRoots(set.Keys)
	return []Conflict{{
		Type:       ConflictSplitRoot,
		Severity:   severity,
		Note:       fmt.Sprintf("cooperating containers mount unrelated roots (%s); hardlink-based moves between them degrade to copies", strings.Join(roots, ", ")),
		Containers: ids,
		Fix: Fix{
			Description: "Mount one common top-level host directory (e.g. /data) into every cooperating container and keep downloads and media as subtrees beneath it",
			Action:      "Replace the per-app mounts with a single <root>:/data mount and point each app at /data subfolders",
		},
	}}
}

// rootsConvertible reports whether re-normalizing the raw host paths
// under a wsl2 hint would produce a single root.
func rootsConvertible(set CooperatingSet) bool {
	keys := make([]CanonicalKey, 0, len(set.Mounts))
	seen := make(map[CanonicalKey]struct{})
	for _, ref := range set.Mounts {
		k, err := Normalize(ref.HostPath, PlatformWSL2)
		if err != nil {
			continue
		}
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return IsSingleRoot(CommonRoot(keys))
}

// topRoots lists the distinct first-level roots for the note text.
func topRoots(keys []CanonicalKey) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range keys {
		segs := k.segments()
		root := string(k)
		if len(segs) > 0 {
			switch k.scheme() {
			case "win":
				root = "win:" + segs[0] + ":/"
			case "unc":
				root = "unc:" + segs[0]
			default:
				root = "/" + segs[0]
			}
		}
		if _, ok := seen[root]; !ok {
			seen[root] = struct{}{}
			out = append(out, root)
		}
	}
	sort.Strings(out)
	return out
}

// crossFilesystems flags a cooperating set whose keys indicate more
// than one storage backend. Path-shape heuristic only.
func crossFilesystems(set CooperatingSet) []Conflict {
	backends := make(map[Backend][]string)
	for _, ref := range set.Mounts {
		b := BackendOf(ref.Key)
		backends[b] = append(backends[b], ref.ContainerID)
	}
	if len(backends) < 2 {
		return nil
	}

	names := make([]string, 0, len(backends))
	for b := range backends {
		names = append(names, string(b))
	}
	sort.Strings(names)

	return []Conflict{{
		Type:       ConflictCrossFilesystem,
		Severity:   SeverityWarning,
		Note:       fmt.Sprintf("cooperating mounts span distinct storage backends (%s); files cannot be hardlinked across them", strings.Join(names, ", ")),
		Containers: containerIDs(set),
		Fix: Fix{
			Description: "Move all cooperating mounts onto one consistent storage backend",
			Action:      "Relocate the outlier mounts so every cooperating path lives on the same filesystem",
		},
	}}
}

// wsl2Conversions flags raw paths using the wrong convention for a
// Windows/WSL2 host when the normalizer could not tie them to a peer.
func wsl2Conversions(set CooperatingSet, platform Platform) []Conflict {
	if platform != PlatformWindows && platform != PlatformWSL2 {
		return nil
	}
	var out []Conflict
	for _, ref := range set.Mounts {
		if !drivePathRe.MatchString(strings.TrimSpace(ref.HostPath)) {
			continue
		}
		if hasRelatedPeer(set, ref) {
			continue
		}
		out = append(out, newWSL2Conversion(ref))
	}
	return out
}

func hasRelatedPeer(set CooperatingSet, ref MountRef) bool {
	for _, other := range set.Mounts {
		if other.ContainerID == ref.ContainerID {
			continue
		}
		if ref.Key.Related(other.Key) {
			return true
		}
	}
	return false
}

func newWSL2Conversion(ref MountRef) Conflict {
	converted := string(ref.Key)
	if !strings.HasPrefix(converted, "/mnt/") {
		if k, err := Normalize(ref.HostPath, PlatformWSL2); err == nil {
			converted = string(k)
		}
	}
	return Conflict{
		Type:       ConflictWSL2PathConversion,
		Severity:   SeverityWarning,
		Note:       fmt.Sprintf("%s uses the native Windows path %q where the WSL2 mount form is expected", ref.ContainerName, ref.HostPath),
		Containers: []string{ref.ContainerID},
		Fix: Fix{
			Description: "Convert the Windows path to its WSL2 /mnt/<drive> form so Docker and its peers resolve the same location",
			Action:      fmt.Sprintf("Replace %s with %s in the compose mounts", ref.HostPath, converted),
		},
	}
}

// permissionMismatches flags a shared destination mounted rw on one
// side and ro on another.
func permissionMismatches(set CooperatingSet) []Conflict {
	byDest := groupByDest(set)
	var out []Conflict
	for _, dest := range sortedDests(byDest) {
		refs := byDest[dest]
		var hasRO, hasRW bool
		var ids []string
		for _, r := range refs {
			ids = append(ids, r.ContainerID)
			switch r.Mode {
			case ModeRO:
				hasRO = true
			default:
				hasRW = true
			}
		}
		if !hasRO || !hasRW || len(sortedUnique(ids)) < 2 {
			continue
		}
		out = append(out, Conflict{
			Type:        ConflictPermissionMismatch,
			Severity:    SeverityInfo,
			Note:        fmt.Sprintf("containers mount %s with differing access modes (ro vs rw)", dest),
			Destination: dest,
			Containers:  sortedUnique(ids),
			Fix: Fix{
				Description: fmt.Sprintf("Align the mount modes for %s so cooperating containers agree on write access", dest),
				Action:      "Set the same ro/rw flag on this mount in every compose service",
			},
		})
	}
	return out
}

func groupByDest(set CooperatingSet) map[string][]MountRef {
	byDest := make(map[string][]MountRef)
	for _, ref := range set.Mounts {
		byDest[ref.ContainerPath] = append(byDest[ref.ContainerPath], ref)
	}
	return byDest
}

func sortedDests(m map[string][]MountRef) []string {
	out := make([]string, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func containerIDs(set CooperatingSet) []string {
	var ids []string
	for _, ref := range set.Mounts {
		ids = append(ids, ref.ContainerID)
	}
	return sortedUnique(ids)
}
