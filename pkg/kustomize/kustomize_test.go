package kustomize

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/tool"
)

const built = `apiVersion: v1
kind: Service
metadata:
  name: web
  namespace: prod
---
apiVersion: v1
kind: Namespace
metadata:
  name: prod
`

func TestBuildWithKustomize(t *testing.T) {
	runner := &tool.Fake{RunFunc: func(cmd tool.Command) ([]byte, error) {
		return []byte(built), nil
	}}
	r := &Renderer{Runner: runner}
	res, err := r.Render(context.Background(), Directory{Path: "overlays/prod"}, ingest.Options{})
	require.NoError(t, err)
	assert.Len(t, res, 2)
	assert.Equal(t, "kustomize:overlays/prod", res["v1/Service::prod/web"].Source())

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "kustomize build overlays/prod", calls[0].String())
}

func TestFallsBackToKubectl(t *testing.T) {
	runner := &tool.Fake{RunFunc: func(cmd tool.Command) ([]byte, error) {
		if cmd.Name == "kustomize" {
			return nil, &tool.ExitError{Command: cmd.String(), Err: fmt.Errorf("kustomize: %w", tool.ErrNotFound)}
		}
		return []byte(built), nil
	}}
	r := &Renderer{Runner: runner}
	out, err := r.Build(context.Background(), Directory{Path: "base"})
	require.NoError(t, err)
	assert.Equal(t, built, string(out))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "kubectl kustomize base", calls[1].String())
}

func TestBuildFailure(t *testing.T) {
	runner := &tool.Fake{RunFunc: func(cmd tool.Command) ([]byte, error) {
		return nil, &tool.ExitError{
			Command: cmd.String(),
			Stderr:  []byte("Error: missing kustomization.yaml"),
			Err:     errors.New("exit status 1"),
		}
	}}
	r := &Renderer{Runner: runner}
	_, err := r.Build(context.Background(), Directory{Path: "nowhere"})
	require.Error(t, err)
	apiErr := kierr.AsAPIError(err)
	assert.Equal(t, kierr.User, apiErr.Type)
	assert.Contains(t, apiErr.Help, "missing kustomization.yaml")
	assert.Len(t, runner.Calls(), 1, "kubectl is only tried if kustomize is missing")
}

func TestNeitherToolFound(t *testing.T) {
	runner := &tool.Fake{RunFunc: func(cmd tool.Command) ([]byte, error) {
		return nil, &tool.ExitError{Command: cmd.String(), Err: fmt.Errorf("%s: %w", cmd.Name, tool.ErrNotFound)}
	}}
	r := &Renderer{Runner: runner}
	_, err := r.Build(context.Background(), Directory{Path: "base"})
	assert.True(t, errors.Is(err, tool.ErrNotFound))
}
