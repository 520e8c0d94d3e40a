package analysis

import (
	"errors"
	"path"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidMountData marks a mount whose host or container path is
// empty or whitespace-only. The mount is rejected; the analysis goes on.
var ErrInvalidMountData = errors.New("invalid mount data")

// CanonicalKey is the normalized, comparable representation of a host
// path. Two keys compare equal iff the raw paths denote the same
// location under the active platform rules; an ancestor relation is
// derivable for subtree containment. Keys use forward slashes.
//
// Shapes:
//
//	/data/media          POSIX bind path, case preserved
//	/mnt/c/docker/data   Windows drive unified to the WSL2 form
//	                     (only under a windows/wsl2 hint), lowercased
//	win:c:/docker/data   Windows drive path on a non-Windows host
//	unc:server/share     UNC share
//	media                named volume or otherwise opaque literal
type CanonicalKey string

var (
	drivePathRe = regexp.MustCompile(`^[A-Za-z]:([\\/]|$)`)
	wslMountRe  = regexp.MustCompile(`^/mnt/[A-Za-z](/|$)`)
	unraidRe    = regexp.MustCompile(`^/mnt/(user|user0|cache|disk[0-9]+)(/|$)`)
	nasVolumeRe = regexp.MustCompile(`^/volume(USB)?[0-9]+(/|$)`)
)

// Normalize canonicalizes a raw host path under a platform hint. It is
// idempotent and never fails for malformed-but-non-empty input; only an
// empty or whitespace-only path is rejected.
func Normalize(raw string, hint Platform) (CanonicalKey, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", ErrInvalidMountData
	}

	// Already-canonical scheme prefixes pass through untouched.
	if strings.HasPrefix(p, "win:") || strings.HasPrefix(p, "unc:") {
		return CanonicalKey(p), nil
	}

	mixedHost := hint == PlatformWindows || hint == PlatformWSL2

	switch {
	case drivePathRe.MatchString(p):
		return normalizeDrivePath(p, mixedHost), nil

	case strings.HasPrefix(p, `\\`):
		// UNC share: \\server\share\dir
		share := strings.ToLower(strings.ReplaceAll(p[2:], `\`, "/"))
		share = strings.Trim(share, "/")
		return CanonicalKey("unc:" + share), nil

	case wslMountRe.MatchString(p) && mixedHost:
		// /mnt/<drive>/... denotes a Windows drive on a mixed host;
		// fold case because the underlying filesystem is NTFS.
		return CanonicalKey(cleanPosix(strings.ToLower(p))), nil

	case strings.HasPrefix(p, "/"):
		// POSIX bind mounts, NAS volume roots and anything else
		// absolute: a literal, case-sensitive key.
		return CanonicalKey(cleanPosix(p)), nil

	default:
		// Named volumes and malformed input fall back to a literal,
		// case-preserved key rather than failing.
		return CanonicalKey(p), nil
	}
}

func normalizeDrivePath(p string, mixedHost bool) CanonicalKey {
	p = strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
	drive := p[:1]
	rest := p[2:]
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	rest = cleanPosix(rest)
	if mixedHost {
		// The signature equivalence: C:\x and /mnt/c/x are the same
		// location on a mixed Windows/WSL2 host.
		if rest == "/" {
			return CanonicalKey("/mnt/" + drive)
		}
		return CanonicalKey("/mnt/" + drive + rest)
	}
	if rest == "/" {
		return CanonicalKey("win:" + drive + ":/")
	}
	return CanonicalKey("win:" + drive + ":" + rest)
}

func cleanPosix(p string) string {
	c := path.Clean(p)
	// path.Clean keeps a leading double slash; collapse it so UNC-ish
	// junk cannot alias a different key on re-normalization.
	if strings.HasPrefix(c, "//") {
		c = c[1:]
	}
	return c
}

// scheme returns the key's namespace: "" for POSIX/literal keys,
// "win" or "unc" otherwise. Keys in different schemes are never
// related.
func (k CanonicalKey) scheme() string {
	s := string(k)
	if i := strings.Index(s, ":"); i > 0 && !strings.HasPrefix(s, "/") {
		return s[:i]
	}
	return ""
}

// Equal reports canonical equality.
func (k CanonicalKey) Equal(other CanonicalKey) bool { return k == other }

// IsAncestorOf reports whether k strictly contains other as a subtree.
func (k CanonicalKey) IsAncestorOf(other CanonicalKey) bool {
	a, b := string(k), string(other)
	if a == b || k.scheme() != other.scheme() {
		return false
	}
	if a == "/" {
		return strings.HasPrefix(b, "/")
	}
	return strings.HasPrefix(b, a+"/")
}

// Related reports equality or containment in either direction; this is
// the cooperation relation the graph builder unions over.
func (k CanonicalKey) Related(other CanonicalKey) bool {
	return k == other || k.IsAncestorOf(other) || other.IsAncestorOf(k)
}

// segments splits the key path into its components, excluding any
// scheme prefix.
func (k CanonicalKey) segments() []string {
	s := string(k)
	switch k.scheme() {
	case "win":
		s = strings.TrimPrefix(s, "win:")
		if i := strings.Index(s, ":"); i >= 0 {
			s = s[:1] + s[i+1:] // "c:/data" -> "c/data"
		}
	case "unc":
		s = strings.TrimPrefix(s, "unc:")
	}
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// Depth is the number of path components below the filesystem root.
func (k CanonicalKey) Depth() int { return len(k.segments()) }

// CommonRoot returns the deepest key that is an ancestor of (or equal
// to) every key in keys, or "" when no common subtree exists. All keys
// must share one scheme; a mixed list has no common root.
func CommonRoot(keys []CanonicalKey) CanonicalKey {
	if len(keys) == 0 {
		return ""
	}
	scheme := keys[0].scheme()
	common := keys[0].segments()
	for _, k := range keys[1:] {
		if k.scheme() != scheme {
			return ""
		}
		segs := k.segments()
		n := 0
		for n < len(common) && n < len(segs) && common[n] == segs[n] {
			n++
		}
		common = common[:n]
		if len(common) == 0 {
			return ""
		}
	}
	joined := strings.Join(common, "/")
	switch scheme {
	case "win":
		return CanonicalKey("win:" + common[0] + ":/" + strings.Join(common[1:], "/"))
	case "unc":
		return CanonicalKey("unc:" + joined)
	default:
		return CanonicalKey("/" + joined)
	}
}

// Backend is the storage backend class inferred from a key's shape.
// This is a best-effort heuristic (no device introspection).
type Backend string

const (
	BackendBind           Backend = "bind"
	BackendUnraidShare    Backend = "unraid-share"
	BackendNASVolume      Backend = "nas-volume"
	BackendWindowsDrive   Backend = "windows-drive"
	BackendDockerInternal Backend = "docker-internal"
	BackendNamedVolume    Backend = "named-volume"
)

// BackendOf classifies the storage backend behind a key.
func BackendOf(k CanonicalKey) Backend {
	s := string(k)
	switch {
	case strings.HasPrefix(s, "win:"), strings.HasPrefix(s, "unc:"):
		return BackendWindowsDrive
	case unraidRe.MatchString(s):
		return BackendUnraidShare
	case wslMountRe.MatchString(s):
		return BackendWindowsDrive
	case nasVolumeRe.MatchString(s):
		return BackendNASVolume
	case strings.HasPrefix(s, "/var/lib/docker"):
		return BackendDockerInternal
	case strings.HasPrefix(s, "/"):
		return BackendBind
	default:
		return BackendNamedVolume
	}
}

// genericParents are directories that hold unrelated filesystems; a
// "common root" at one of these proves nothing about hardlink safety.
var genericParents = map[CanonicalKey]struct{}{
	"/":        {},
	"/mnt":     {},
	"/media":   {},
	"/home":    {},
	"/var":     {},
	"/tmp":     {},
	"/run":     {},
	"/Volumes": {},
}

// IsSingleRoot reports whether root is a usable shared data root: deep
// enough to name a real directory and not a generic mount parent. A
// bare drive key (/mnt/c, win:c:/) qualifies, since one drive is one
// filesystem.
func IsSingleRoot(root CanonicalKey) bool {
	if root == "" {
		return false
	}
	if _, generic := genericParents[root]; generic {
		return false
	}
	return root.Depth() >= 1
}

// sortedKeys returns the map's keys in deterministic order.
func sortedKeys(m map[CanonicalKey][]MountRef) []CanonicalKey {
	out := make([]CanonicalKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
