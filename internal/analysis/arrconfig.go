package analysis

import (
	"regexp"
	"sort"
	"strings"
)

var (
	arrAppRe         = regexp.MustCompile(`(sonarr|radarr|lidarr|readarr|bazarr|prowlarr|whisparr)`)
	downloadClientRe = regexp.MustCompile(`(qbit|transmission|deluge|nzbget|sabnzbd|rtorrent)`)
	mediaDestRe      = regexp.MustCompile(`(tv|movies|music|books|media|data)`)
)

// arrAppType returns the *arr application type for a container, or "".
func arrAppType(c Container) string {
	for _, probe := range []string{strings.ToLower(c.Name), strings.ToLower(c.Image)} {
		if m := arrAppRe.FindString(probe); m != "" {
			return m
		}
	}
	return ""
}

func isDownloadClient(c Container) bool {
	return downloadClientRe.MatchString(strings.ToLower(c.Name)) ||
		downloadClientRe.MatchString(strings.ToLower(c.Image))
}

// isMediaStackContainer reports whether the container plays a role in
// the download-then-import pipeline and therefore should share a
// filesystem subtree with its peers.
func isMediaStackContainer(c Container) bool {
	return arrAppType(c) != "" || isDownloadClient(c)
}

// DetectArrConfigs inspects *arr containers and reports their detected
// layout plus obvious gaps. Non-*arr containers are skipped.
func DetectArrConfigs(containers []Container) []ArrConfig {
	var out []ArrConfig
	for _, c := range containers {
		appType := arrAppType(c)
		if appType == "" {
			continue
		}
		cfg := ArrConfig{Container: c.Name, AppType: appType}
		for _, m := range c.Mounts {
			dest := strings.ToLower(m.ContainerPath)
			switch {
			case dest == "/config" || strings.HasSuffix(dest, "/config"):
				cfg.ConfigPath = m.HostPath
			case strings.Contains(dest, "download"):
				cfg.DownloadPaths = append(cfg.DownloadPaths, m.HostPath)
			case mediaDestRe.MatchString(dest):
				if cfg.RootFolder == "" {
					cfg.RootFolder = m.HostPath
				}
			}
		}
		if cfg.RootFolder == "" {
			cfg.Issues = append(cfg.Issues, "no root folder mount detected")
		}
		if len(cfg.DownloadPaths) == 0 {
			cfg.Issues = append(cfg.Issues, "no download path mount detected; imports will copy instead of hardlink")
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Container < out[j].Container })
	return out
}
