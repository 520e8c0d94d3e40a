package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// template is the canonical fix guidance for one conflict type.
type template struct {
	title       string
	description string
	action      string
}

var recTemplates = map[ConflictType]template{
	ConflictDestinationCollision: {
		title:       TitleUnifyMappings,
		description: "Multiple containers map different host sources to the same destination",
		action:      "Use identical source paths across all cooperating containers",
	},
	ConflictSplitRoot: {
		title:       TitleSingleRoot,
		description: "Cooperating containers mount unrelated roots; mount one shared top-level directory and address subtrees beneath it",
		action:      "Consolidate mounts under a single root such as /data",
	},
	ConflictCrossFilesystem: {
		title:       TitleConsistentBackend,
		description: "Cooperating mounts live on different storage backends, which rules out hardlinks between them",
		action:      "Move all cooperating data onto one backend",
	},
	ConflictWSL2PathConversion: {
		title:       TitleWSL2Conversion,
		description: "Convert native Windows paths to the WSL2 mount form for consistency",
		action:      `C:\data -> /mnt/c/data`,
	},
	ConflictPermissionMismatch: {
		title:       TitleAlignMountModes,
		description: "Cooperating containers disagree on read/write access to a shared destination",
		action:      "Align the ro/rw mount flags across services",
	},
	ConflictUIDGIDMismatch: {
		title:       TitleConsistentUIDGID,
		description: "Apps sharing one data root should run with the same PUID/PGID so file ownership stays uniform",
		action:      "Set matching PUID and PGID environment variables on every app",
	},
}

// Recommend maps a conflict list to deduplicated, prioritized fix
// guidance. Zero conflicts yields zero recommendations; that is the
// healthy case, not an error.
func Recommend(conflicts []Conflict, platform Platform) []Recommendation {
	if len(conflicts) == 0 {
		return nil
	}

	var out []Recommendation

	criticals := 0
	for _, c := range conflicts {
		if c.Severity == SeverityCritical {
			criticals++
		}
	}
	if criticals > 0 {
		out = append(out, Recommendation{
			Priority:    PriorityHigh,
			Title:       TitleResolveCritical,
			Description: fmt.Sprintf("%d critical conflict(s) break atomic moves between your containers; fix these first", criticals),
			Action:      "Work through the critical conflicts above before tuning anything else",
		})
	}

	// One recommendation per conflict type, priority following the
	// worst severity seen for that type.
	worst := make(map[ConflictType]Severity)
	dests := make(map[ConflictType][]string)
	for _, c := range conflicts {
		if cur, ok := worst[c.Type]; !ok || c.Severity.rank() < cur.rank() {
			worst[c.Type] = c.Severity
		}
		if c.Destination != "" {
			dests[c.Type] = append(dests[c.Type], c.Destination)
		}
	}

	types := make([]ConflictType, 0, len(worst))
	for t := range worst {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		tpl, ok := recTemplates[t]
		if !ok {
			continue
		}
		desc := tpl.description
		if affected := sortedUnique(dests[t]); len(affected) > 0 {
			desc = fmt.Sprintf("%s (affects %s)", desc, strings.Join(affected, ", "))
		}
		out = append(out, Recommendation{
			Priority:    priorityFor(worst[t]),
			Title:       tpl.title,
			Description: desc,
			Action:      tpl.action,
		})
	}

	// Platform-level guidance accompanies findings, never replaces a
	// healthy verdict.
	if platform == PlatformWindows {
		out = append(out, Recommendation{
			Priority:    PriorityMedium,
			Title:       TitleWSL2Conversion,
			Description: "Native Windows paths in bind mounts behave differently from WSL2 mounts; standardize on the /mnt/<drive> form",
			Action:      `C:\data -> /mnt/c/data`,
		})
	}
	if platform == PlatformUnknown {
		out = append(out, Recommendation{
			Priority:    PriorityLow,
			Title:       TitlePlatformUnknown,
			Description: "The host platform could not be inferred from the mount paths, so platform-specific checks were relaxed",
		})
	}

	return dedupeRecommendations(out)
}

func priorityFor(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityHigh
	case SeverityWarning:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// dedupeRecommendations keeps one entry per title (highest priority
// wins) and applies the output order: priority descending, the
// resolve-criticals entry pinned first, then title.
func dedupeRecommendations(recs []Recommendation) []Recommendation {
	byTitle := make(map[string]int)
	var out []Recommendation
	for _, r := range recs {
		if i, ok := byTitle[r.Title]; ok {
			if r.Priority.rank() < out[i].Priority.rank() {
				out[i] = r
			}
			continue
		}
		byTitle[r.Title] = len(out)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.rank() != out[j].Priority.rank() {
			return out[i].Priority.rank() < out[j].Priority.rank()
		}
		if (out[i].Title == TitleResolveCritical) != (out[j].Title == TitleResolveCritical) {
			return out[i].Title == TitleResolveCritical
		}
		return out[i].Title < out[j].Title
	})
	return out
}
