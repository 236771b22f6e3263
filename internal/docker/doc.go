// Package docker attributes host ports to running containers.
//
// When a slot's port is already taken, the lifecycle commands ask the
// Docker daemon which container publishes it, so the warning can name the
// culprit (often a leftover compose stack from another worktree).
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// A missing or unreachable daemon is never fatal to callers.
package docker
