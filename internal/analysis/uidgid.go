package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// CheckUIDGID verifies that the *arr containers agree on the user and
// group they run as. Mismatched or missing PUID/PGID breaks file
// ownership across the shared subtree even when the paths line up.
// Findings are info-severity; they never make a setup critical.
func CheckUIDGID(containers []Container) []Conflict {
	var out []Conflict
	type identity struct{ uid, gid string }
	byIdentity := make(map[identity][]string)

	for _, c := range containers {
		if arrAppType(c) == "" {
			continue
		}
		uid := firstEnv(c.Env, "PUID", "UID")
		gid := firstEnv(c.Env, "PGID", "GID")
		if uid == "" || gid == "" {
			out = append(out, Conflict{
				Type:       ConflictUIDGIDMismatch,
				Severity:   SeverityInfo,
				Note:       fmt.Sprintf("%s is missing PUID/PGID environment variables; files it writes may be owned by the wrong user", c.Name),
				Containers: []string{c.ID},
				Fix: Fix{
					Description: "Set PUID and PGID so the app writes files as the media user",
					Action:      "Add PUID=1000 and PGID=1000 (or your media user's ids) to the service environment",
				},
			})
			continue
		}
		byIdentity[identity{uid, gid}] = append(byIdentity[identity{uid, gid}], c.ID)
	}

	if len(byIdentity) > 1 {
		var ids []string
		var pairs []string
		for id, members := range byIdentity {
			ids = append(ids, members...)
			pairs = append(pairs, id.uid+":"+id.gid)
		}
		sort.Strings(pairs)
		out = append(out, Conflict{
			Type:       ConflictUIDGIDMismatch,
			Severity:   SeverityInfo,
			Note:       fmt.Sprintf("cooperating apps run with differing PUID/PGID (%s); hardlinked files will carry mixed ownership", strings.Join(pairs, ", ")),
			Containers: sortedUnique(ids),
			Fix: Fix{
				Description: "Use one PUID/PGID pair across every app that touches the shared data root",
				Action:      "Align the PUID and PGID environment variables across the compose services",
			},
		})
	}
	return out
}

func firstEnv(env map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := env[k]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
