package docker

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/shinji-kodama/worktree-slots/internal/logging"
)

// PublishedPorts maps every host port published by a running container to
// that container's name.
//
// Only running containers are considered: a stopped container holds no
// port, and listing it would only produce misleading attributions.
func (c *Client) PublishedPorts(ctx context.Context) (map[int]string, error) {
	listCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	containers, err := c.inner.ContainerList(listCtx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("status", "running")),
	})
	if err != nil {
		return nil, err
	}

	owners := portOwners(containers)
	logging.Debug("docker published ports", logging.Fields{
		"containers": len(containers),
		"ports":      len(owners),
	})
	return owners, nil
}

// portOwners is the pure mapping behind PublishedPorts. When several
// containers report the same host port (IPv4 and IPv6 bindings of one
// container, or two containers on different interfaces) the first wins.
func portOwners(containers []container.Summary) map[int]string {
	owners := make(map[int]string)
	for _, c := range containers {
		name := containerName(c)
		for _, p := range c.Ports {
			if p.PublicPort == 0 {
				continue
			}
			port := int(p.PublicPort)
			if _, taken := owners[port]; !taken {
				owners[port] = name
			}
		}
	}
	return owners
}

// containerName returns the first container name without Docker's leading
// "/", falling back to the short ID.
func containerName(c container.Summary) string {
	if len(c.Names) > 0 {
		return strings.TrimPrefix(c.Names[0], "/")
	}
	if len(c.ID) > 12 {
		return c.ID[:12]
	}
	return c.ID
}
