package analysis

import (
	"fmt"
	"strings"
)

// mediaBuckets are leaf directory names that sit below a data root;
// climbing past them finds the root worth recommending.
var mediaBuckets = map[string]struct{}{
	"tv": {}, "movies": {}, "music": {}, "books": {}, "media": {},
	"downloads": {}, "torrents": {}, "usenet": {}, "complete": {}, "incomplete": {},
}

// SuggestLayout proposes the single-root directory structure for this
// host, derived from the deepest common root of the observed keys and
// falling back to the platform-conventional default.
func SuggestLayout(g *Graph, platform Platform) *HardlinkLayout {
	keys := layoutKeys(g)
	root := climbToDataRoot(CommonRoot(keys))
	if !IsSingleRoot(root) {
		root = fallbackRoot(keys)
	}

	r := string(root)
	structure := fmt.Sprintf(`%s
├── downloads/
│   ├── complete/
│   └── incomplete/
└── media/
    ├── movies/
    └── tv/`, r)

	return &HardlinkLayout{Root: r, Structure: structure}
}

// layoutKeys prefers the largest cooperating set; a lone container's
// keys still produce a suggestion.
func layoutKeys(g *Graph) []CanonicalKey {
	var best []CanonicalKey
	bestContainers := 0
	for _, set := range g.Sets {
		if len(set.Containers) > bestContainers && len(set.Keys) > 0 {
			bestContainers = len(set.Containers)
			best = set.Keys
		}
	}
	if best == nil {
		best = sortedKeys(g.ByKey)
	}
	return best
}

// climbToDataRoot strips trailing media bucket names so /data/media/tv
// recommends /data, not the tv folder itself.
func climbToDataRoot(root CanonicalKey) CanonicalKey {
	for root != "" && root.Depth() > 1 {
		segs := root.segments()
		last := strings.ToLower(segs[len(segs)-1])
		if _, ok := mediaBuckets[last]; !ok {
			break
		}
		root = root.parent()
	}
	return root
}

func (k CanonicalKey) parent() CanonicalKey {
	s := string(k)
	i := strings.LastIndex(s, "/")
	if i <= 0 {
		return k
	}
	return CanonicalKey(s[:i])
}

func fallbackRoot(keys []CanonicalKey) CanonicalKey {
	for _, k := range keys {
		switch BackendOf(k) {
		case BackendUnraidShare:
			return "/mnt/user/data"
		case BackendNASVolume:
			segs := k.segments()
			if len(segs) > 0 {
				return CanonicalKey("/" + segs[0] + "/data")
			}
			return "/volume1/data"
		}
	}
	return "/data"
}
