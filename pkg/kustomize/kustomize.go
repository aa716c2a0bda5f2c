// Package kustomize renders kustomization directories by running
// kustomize, or kubectl if kustomize isn't installed.
package kustomize

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/tool"
)

// Directory is a kustomization: a local directory, or anything else
// kustomize accepts as a target, e.g., a git URL.
type Directory struct {
	Path string
}

type Renderer struct {
	// Kustomize and Kubectl are the executables to try, in that
	// order; "kustomize" and "kubectl" if empty
	Kustomize string
	Kubectl   string
	Runner    tool.Runner
	Ingester  *ingest.Ingester
	Logger    log.Logger
}

func (r *Renderer) runner() tool.Runner {
	if r.Runner == nil {
		return tool.Exec{Logger: r.logger()}
	}
	return r.Runner
}

func (r *Renderer) logger() log.Logger {
	if r.Logger == nil {
		return log.NewNopLogger()
	}
	return r.Logger
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Build runs the kustomization, returning the YAML stream it prints.
func (r *Renderer) Build(ctx context.Context, dir Directory) ([]byte, error) {
	if dir.Path == "" {
		return nil, errors.New("no kustomization directory given")
	}
	out, err := r.runner().Run(ctx, tool.Command{
		Name: orDefault(r.Kustomize, "kustomize"),
		Args: []string{"build", dir.Path},
	})
	if errors.Is(err, tool.ErrNotFound) {
		r.logger().Log("info", "kustomize not found; trying kubectl kustomize")
		out, err = r.runner().Run(ctx, tool.Command{
			Name: orDefault(r.Kubectl, "kubectl"),
			Args: []string{"kustomize", dir.Path},
		})
	}
	if err != nil {
		return nil, buildError(dir, err)
	}
	return out, nil
}

func buildError(dir Directory, err error) error {
	var stderr string
	var exitErr *tool.ExitError
	if errors.As(err, &exitErr) {
		stderr = string(exitErr.Stderr)
	}
	if errors.Is(err, tool.ErrNotFound) {
		return &kierr.Error{
			Type: kierr.User,
			Err:  err,
			Help: `Neither kustomize nor kubectl could be found. Install one of them, or
say where to find it.
`,
		}
	}
	return &kierr.Error{
		Type: kierr.User,
		Err:  errors.Wrapf(err, "building kustomization %s", dir.Path),
		Help: `Building the kustomization in ` + dir.Path + ` failed:

` + stderr + `
`,
	}
}

// Render builds the kustomization and ingests the result.
func (r *Renderer) Render(ctx context.Context, dir Directory, opts ingest.Options) (ingest.Resources, error) {
	out, err := r.Build(ctx, dir)
	if err != nil {
		return nil, err
	}
	in := r.Ingester
	if in == nil {
		in = &ingest.Ingester{Logger: r.logger()}
	}
	return in.YAML(out, "kustomize:"+dir.Path, opts)
}
