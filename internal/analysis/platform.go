package analysis

import (
	"strings"
)

// DetectPlatform infers the host environment. Explicit daemon metadata
// wins; otherwise the dominant raw path shape across all mounts
// decides. Total and deterministic: the same snapshot always yields the
// same platform.
func DetectPlatform(meta Meta, mounts []Mount) Platform {
	if p, ok := platformFromMeta(meta); ok {
		return p
	}

	var windows, wsl, posix int
	for _, m := range mounts {
		p := strings.TrimSpace(m.HostPath)
		switch {
		case p == "":
		case drivePathRe.MatchString(p), strings.HasPrefix(p, `\\`):
			windows++
		case wslMountRe.MatchString(p):
			wsl++
		case strings.HasPrefix(p, "/"):
			posix++
		}
	}

	total := windows + wsl + posix
	if total == 0 {
		return PlatformUnknown
	}
	if windows > 0 && wsl > 0 {
		// Both conventions in one snapshot is the mixed
		// Windows/WSL2 host signature.
		return PlatformWSL2
	}
	if windows*2 > total {
		return PlatformWindows
	}
	if wsl*2 > total {
		return PlatformWSL2
	}
	// POSIX-only paths cannot distinguish linux from mac without
	// metadata.
	return PlatformUnknown
}

func platformFromMeta(meta Meta) (Platform, bool) {
	osType := strings.ToLower(meta.OSType)
	osName := strings.ToLower(meta.OperatingSystem)
	kernel := strings.ToLower(meta.KernelVersion)

	switch {
	case osType == "windows":
		return PlatformWindows, true
	case strings.Contains(kernel, "microsoft"), strings.Contains(kernel, "wsl"):
		// WSL2 kernels report e.g. 5.15.x-microsoft-standard-WSL2.
		return PlatformWSL2, true
	case strings.Contains(osName, "mac"), strings.Contains(osName, "darwin"):
		return PlatformMac, true
	case osType == "linux" && osName != "" && !strings.Contains(osName, "docker desktop"):
		// Docker Desktop runs a Linux VM on both Windows and macOS,
		// so its banner alone proves nothing about the real host.
		return PlatformLinux, true
	}
	return PlatformUnknown, false
}
