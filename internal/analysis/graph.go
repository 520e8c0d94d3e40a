package analysis

import (
	"sort"
)

// MountRef is one normalized mount in the graph, tied back to its
// container.
type MountRef struct {
	ContainerID   string
	ContainerName string
	ContainerPath string
	HostPath      string
	Mode          MountMode
	Key           CanonicalKey
}

// RejectedMount records a mount dropped for invalid data. Its
// container still counts as analyzed and no conflict may reference it.
type RejectedMount struct {
	ContainerID string
	Mount       Mount
	Err         error
}

// CooperatingSet groups containers that share, nest or should share a
// filesystem subtree.
type CooperatingSet struct {
	Containers []string
	Keys       []CanonicalKey
	Mounts     []MountRef
}

// Graph is the clustered view of a snapshot the conflict rules read.
type Graph struct {
	ByKey    map[CanonicalKey][]MountRef
	Sets     []CooperatingSet
	Rejected []RejectedMount
}

// BuildGraph normalizes every mount and clusters containers into
// cooperating sets. Two containers cooperate when any of their keys are
// equal or nested, when they mount the identical container-side path,
// or when both belong to the media stack (an *arr app or a download
// client); the union is transitive-closure correct.
func BuildGraph(containers []Container, platform Platform) *Graph {
	g := &Graph{ByKey: make(map[CanonicalKey][]MountRef)}

	var refs []MountRef
	uf := newUnionFind()

	for _, c := range containers {
		for _, m := range c.Mounts {
			key, err := Normalize(m.HostPath, platform)
			if err == nil && isBlank(m.ContainerPath) {
				err = ErrInvalidMountData
			}
			if err != nil {
				g.Rejected = append(g.Rejected, RejectedMount{ContainerID: c.ID, Mount: m, Err: err})
				continue
			}
			ref := MountRef{
				ContainerID:   c.ID,
				ContainerName: c.Name,
				ContainerPath: m.ContainerPath,
				HostPath:      m.HostPath,
				Mode:          m.Mode,
				Key:           key,
			}
			refs = append(refs, ref)
			g.ByKey[key] = append(g.ByKey[key], ref)
			uf.add(c.ID)
		}
	}

	for i := 0; i < len(refs); i++ {
		for j := i + 1; j < len(refs); j++ {
			a, b := refs[i], refs[j]
			if a.ContainerID == b.ContainerID {
				continue
			}
			if a.Key.Related(b.Key) || a.ContainerPath == b.ContainerPath {
				uf.union(a.ContainerID, b.ContainerID)
			}
		}
	}

	// Media-stack containers are expected to cooperate even when their
	// mounts never overlap; a downloader and a library manager with
	// unrelated roots is exactly the broken-hardlink setup.
	var stack []string
	for _, c := range containers {
		if isMediaStackContainer(c) && len(c.Mounts) > 0 {
			uf.add(c.ID)
			stack = append(stack, c.ID)
		}
	}
	for i := 1; i < len(stack); i++ {
		uf.union(stack[0], stack[i])
	}

	g.Sets = buildSets(uf, refs)
	return g
}

func buildSets(uf *unionFind, refs []MountRef) []CooperatingSet {
	members := make(map[string][]string) // root id -> container ids
	for _, id := range uf.ids {
		root := uf.find(id)
		members[root] = append(members[root], id)
	}

	var sets []CooperatingSet
	for _, ids := range members {
		ids = sortedUnique(ids)
		set := CooperatingSet{Containers: ids}
		keySeen := make(map[CanonicalKey]struct{})
		for _, ref := range refs {
			if uf.find(ref.ContainerID) != uf.find(ids[0]) {
				continue
			}
			set.Mounts = append(set.Mounts, ref)
			if _, ok := keySeen[ref.Key]; !ok {
				keySeen[ref.Key] = struct{}{}
				set.Keys = append(set.Keys, ref.Key)
			}
		}
		sort.Slice(set.Keys, func(i, j int) bool { return set.Keys[i] < set.Keys[j] })
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Containers[0] < sets[j].Containers[0]
	})
	return sets
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// unionFind is a plain disjoint-set over container ids with
// deterministic iteration order.
type unionFind struct {
	parent map[string]string
	ids    []string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(id string) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
		u.ids = append(u.ids, id)
	}
}

func (u *unionFind) find(id string) string {
	u.add(id)
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	// Smaller id wins the root so grouping is order-independent.
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
