// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs converter images under docker or podman. Handout
// PDFs are piped in on stdin and text comes back on stdout, so no host paths
// are mounted.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runtime provides the container operations the converters need.
type Runtime interface {
	// Name returns the runtime binary ("docker" or "podman").
	Name() string

	// ImageExists returns nil when the named image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run starts a throwaway, network-less container from image, piping
	// stdin and stdout.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// flavor describes one supported runtime binary. Docker and podman differ
// only in how a local image is checked.
type flavor struct {
	bin        string
	imageCheck []string
}

// flavors lists supported runtimes in detection order.
var flavors = []flavor{
	{bin: "docker", imageCheck: []string{"image", "inspect"}},
	{bin: "podman", imageCheck: []string{"image", "exists"}},
}

// invocation is one command to execute.
type invocation struct {
	name   string
	args   []string
	stdin  io.Reader
	stdout io.Writer
}

func (inv invocation) String() string {
	return strings.TrimSpace(inv.name + " " + strings.Join(inv.args, " "))
}

// executor runs commands; tests replace it.
type executor interface {
	LookPath(file string) (string, error)
	Exec(ctx context.Context, inv invocation) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Exec runs inv and folds stderr into the error.
func (osExecutor) Exec(ctx context.Context, inv invocation) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.name, inv.args...)
	cmd.Stdin = inv.stdin
	cmd.Stdout = inv.stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

type runtime struct {
	flavor
	exec executor
}

func (r *runtime) Name() string { return r.bin }

// available reports whether the binary is on PATH and the daemon answers.
func (r *runtime) available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.Exec(ctx, invocation{name: r.bin, args: []string{"info"}}) == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, r.imageCheck...), image)
	if err := r.exec.Exec(ctx, invocation{name: r.bin, args: args}); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	inv := invocation{
		name:   r.bin,
		args:   []string{"run", "--rm", "-i", "--network", "none", image},
		stdin:  stdin,
		stdout: stdout,
	}
	if err := r.exec.Exec(ctx, inv); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the first working runtime, docker before podman.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detect(ctx, osExecutor{})
}

func detect(ctx context.Context, ex executor) (Runtime, error) {
	names := make([]string, 0, len(flavors))
	for _, f := range flavors {
		rt := &runtime{flavor: f, exec: ex}
		if rt.available(ctx) {
			return rt, nil
		}
		names = append(names, f.bin)
	}
	return nil, fmt.Errorf("no container runtime available: tried %s", strings.Join(names, ", "))
}
