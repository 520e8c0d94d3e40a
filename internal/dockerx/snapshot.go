package dockerx

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"

	"maparr/internal/analysis"
)

// idLen truncates full container ids to the familiar short form.
const idLen = 12

// identityEnv is always carried into the snapshot; other variables only
// make it in when their value looks like a filesystem path.
var identityEnv = map[string]struct{}{
	"PUID": {}, "PGID": {}, "UID": {}, "GID": {}, "UMASK": {},
}

// Snapshot captures every container's mounts, the identity environment
// and the daemon host metadata as one immutable analysis input.
func (c *Client) Snapshot(ctx context.Context) (analysis.Snapshot, error) {
	list, err := c.listContainers(ctx)
	if err != nil {
		return analysis.Snapshot{}, err
	}

	snap := analysis.Snapshot{Meta: c.hostMeta(ctx)}
	for _, summary := range list {
		ctr := toContainer(summary)
		ctr.Env = c.containerEnv(ctx, summary.ID)
		snap.Containers = append(snap.Containers, ctr)
	}

	log.Debug("snapshot captured", "containers", len(snap.Containers))
	return snap, nil
}

// toContainer maps one SDK summary onto the analyzer's container shape:
// short id, slash-stripped name, and mounts with mode derived from RW.
func toContainer(summary container.Summary) analysis.Container {
	ctr := analysis.Container{
		ID:    shortID(summary.ID),
		Name:  containerName(summary.Names),
		Image: summary.Image,
	}
	for _, mp := range summary.Mounts {
		mode := analysis.ModeRW
		if !mp.RW {
			mode = analysis.ModeRO
		}
		source := mp.Source
		if source == "" {
			// Named volumes list their volume name, not a path.
			source = mp.Name
		}
		ctr.Mounts = append(ctr.Mounts, analysis.Mount{
			HostPath:      source,
			ContainerPath: mp.Destination,
			Mode:          mode,
		})
	}
	return ctr
}

func (c *Client) hostMeta(ctx context.Context) analysis.Meta {
	cli, err := c.connect()
	if err != nil {
		return analysis.Meta{}
	}
	info, err := cli.Info(ctx)
	if err != nil {
		log.Debug("daemon info unavailable", "error", err)
		return analysis.Meta{}
	}
	return analysis.Meta{
		OperatingSystem: info.OperatingSystem,
		OSType:          info.OSType,
		KernelVersion:   info.KernelVersion,
	}
}

// containerEnv inspects one container and keeps the identity variables
// plus anything path-valued. Inspect failures degrade to no env rather
// than failing the snapshot.
func (c *Client) containerEnv(ctx context.Context, id string) map[string]string {
	cli, err := c.connect()
	if err != nil {
		return nil
	}
	inspect, err := cli.ContainerInspect(ctx, id)
	if err != nil || inspect.Config == nil {
		return nil
	}
	return filterEnv(inspect.Config.Env)
}

// filterEnv keeps the identity variables plus anything path-valued.
func filterEnv(kvs []string) map[string]string {
	env := make(map[string]string)
	for _, kv := range kvs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, keep := identityEnv[key]; keep || looksLikePath(value) {
			env[key] = value
		}
	}
	if len(env) == 0 {
		return nil
	}
	return env
}

func looksLikePath(v string) bool {
	if strings.HasPrefix(v, "/") || strings.HasPrefix(v, `\\`) {
		return true
	}
	return len(v) > 2 && v[1] == ':' && (v[2] == '\\' || v[2] == '/')
}

func shortID(id string) string {
	if len(id) > idLen {
		return id[:idLen]
	}
	return id
}

func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}
