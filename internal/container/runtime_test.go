// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor succeeds for binaries on its path and commands it knows.
type fakeExecutor struct {
	onPath map[string]bool
	ok     map[string]bool
	pipe   func(inv invocation) error
	ran    []string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExecutor) Exec(_ context.Context, inv invocation) error {
	f.ran = append(f.ran, inv.String())
	if inv.stdin != nil && f.pipe != nil {
		return f.pipe(inv)
	}
	if f.ok[inv.String()] {
		return nil
	}
	return errors.New("exit status 1")
}

func runtimeFor(bin string, ex executor) *runtime {
	for _, f := range flavors {
		if f.bin == bin {
			return &runtime{flavor: f, exec: ex}
		}
	}
	panic("unknown runtime " + bin)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		onPath   []string
		ok       []string
		wantName string
	}{
		{"docker preferred", []string{"docker", "podman"}, []string{"docker info", "podman info"}, "docker"},
		{"podman when docker is missing", []string{"podman"}, []string{"podman info"}, "podman"},
		{"podman when docker daemon is down", []string{"docker", "podman"}, []string{"podman info"}, "podman"},
		{"nothing usable", nil, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExecutor{onPath: map[string]bool{}, ok: map[string]bool{}}
			for _, b := range tt.onPath {
				ex.onPath[b] = true
			}
			for _, c := range tt.ok {
				ex.ok[c] = true
			}

			rt, err := detect(context.Background(), ex)
			if tt.wantName == "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "tried docker, podman")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func TestImageExists(t *testing.T) {
	const image = "markitdown:latest"

	ex := &fakeExecutor{ok: map[string]bool{
		"docker image inspect " + image: true,
		"podman image exists " + image:  true,
	}}
	assert.NoError(t, runtimeFor("docker", ex).ImageExists(context.Background(), image))
	assert.NoError(t, runtimeFor("podman", ex).ImageExists(context.Background(), image))

	err := runtimeFor("docker", &fakeExecutor{}).ImageExists(context.Background(), image)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image markitdown:latest not found in docker")
}

func TestRun_PipesThroughNetworklessContainer(t *testing.T) {
	ex := &fakeExecutor{pipe: func(inv invocation) error {
		data, _ := io.ReadAll(inv.stdin)
		_, err := inv.stdout.Write([]byte("page one\f" + string(data)))
		return err
	}}

	var out bytes.Buffer
	err := runtimeFor("podman", ex).Run(context.Background(), "markitdown:latest", strings.NewReader("%PDF"), &out)
	require.NoError(t, err)
	assert.Equal(t, "page one\f%PDF", out.String())
	assert.Equal(t, []string{"podman run --rm -i --network none markitdown:latest"}, ex.ran)
}

func TestRun_FailureWrapped(t *testing.T) {
	ex := &fakeExecutor{pipe: func(invocation) error {
		return errors.New("container exited with code 1")
	}}
	err := runtimeFor("docker", ex).Run(context.Background(), "markitdown:latest", strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running docker container markitdown:latest")
	assert.Contains(t, err.Error(), "exited with code 1")
}
