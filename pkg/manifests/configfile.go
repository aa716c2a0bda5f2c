// Package manifests reads .kubeingest.yaml files, which describe a
// batch of manifests to be rendered and ingested together.
package manifests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	ghodssyaml "github.com/ghodss/yaml"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/fluxcd/kubeingest/pkg/helm"
	"github.com/fluxcd/kubeingest/pkg/ingest"
	"github.com/fluxcd/kubeingest/pkg/kustomize"
	"github.com/fluxcd/kubeingest/pkg/manifest"
	"github.com/fluxcd/kubeingest/pkg/resource"
	"github.com/fluxcd/kubeingest/pkg/tool"
	"github.com/fluxcd/kubeingest/pkg/transform"
)

const (
	ConfigFilename = ".kubeingest.yaml"
	CommandTimeout = time.Minute
)

type ConfigFile struct {
	Path       string `yaml:"-"`
	WorkingDir string `yaml:"-"`
	Version    int
	// Namespace is given to namespaced resources that don't have one
	Namespace       string
	ResourcePrefix  string `yaml:"resourcePrefix"`
	Sources         []Source
	Transformations []Transformation
}

// Source is one place manifests come from. Exactly one field should
// be set.
type Source struct {
	// Files are paths, globs or URLs; relative paths are relative to
	// the config file
	Files     []string
	YAML      string `yaml:"yaml"`
	Kustomize string
	Helm      *HelmSource
	Generator *Generator
}

type HelmSource struct {
	Path        string
	Chart       string
	Repo        string
	Version     string
	Fetch       helm.FetchOpts `yaml:"fetch"`
	Values      map[string]interface{}
	ValuesFiles []string `yaml:"valuesFiles"`
	Namespace   string
	APIVersions []string `yaml:"apiVersions"`
	IncludeCRDs bool     `yaml:"includeCRDs"`
	ReleaseName string   `yaml:"releaseName"`
}

// Generator is a shell command that prints manifests.
type Generator struct {
	Command string
}

// Transformation is a declarative transformation; the fields that
// are set are applied in the order they're declared here.
type Transformation struct {
	Namespace   string
	Labels      map[string]string
	Annotations map[string]string
	// JSONPatch and MergePatch may be written as YAML
	JSONPatch   interface{} `yaml:"jsonPatch"`
	MergePatch  interface{} `yaml:"mergePatch"`
	StripStatus bool        `yaml:"stripStatus"`
	SecretKinds []string    `yaml:"secretKinds"`
}

func NewConfigFile(path string) (*ConfigFile, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read: %s", err)
	}
	result, err := ParseConfigFile(fileBytes)
	if err != nil {
		return nil, err
	}
	result.Path = path
	result.WorkingDir = filepath.Dir(path)
	return result, nil
}

func ParseConfigFile(fileBytes []byte) (*ConfigFile, error) {
	var result ConfigFile
	if err := yaml.UnmarshalStrict(fileBytes, &result); err != nil {
		return nil, fmt.Errorf("cannot parse: %s", err)
	}
	if result.Version != 1 {
		return nil, errors.New("incorrect version, only version 1 is supported for now")
	}
	for i, s := range result.Sources {
		if n := s.count(); n != 1 {
			return nil, fmt.Errorf("source %d: exactly one of files, yaml, kustomize, helm or generator must be given, found %d", i, n)
		}
		if s.Helm != nil {
			values, err := stringKeys(s.Helm.Values)
			if err != nil {
				return nil, fmt.Errorf("source %d: helm values: %s", i, err)
			}
			s.Helm.Values, _ = values.(map[string]interface{})
		}
	}
	if _, err := result.Pipeline(); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s Source) count() int {
	n := 0
	for _, set := range []bool{len(s.Files) > 0, s.YAML != "", s.Kustomize != "", s.Helm != nil, s.Generator != nil} {
		if set {
			n++
		}
	}
	return n
}

// Pipeline gives the transformations as a pipeline, with setting the
// default namespace first.
func (cf *ConfigFile) Pipeline() (transform.Pipeline, error) {
	var p transform.Pipeline
	if cf.Namespace != "" {
		p = append(p, transform.DefaultNamespace(cf.Namespace))
	}
	for i, t := range cf.Transformations {
		fs, err := t.funcs()
		if err != nil {
			return nil, fmt.Errorf("transformation %d: %s", i, err)
		}
		p = append(p, fs...)
	}
	return p, nil
}

func (t Transformation) funcs() ([]transform.Func, error) {
	var fs []transform.Func
	if t.Namespace != "" {
		fs = append(fs, transform.SetNamespace(t.Namespace))
	}
	if len(t.Labels) > 0 {
		fs = append(fs, transform.AddLabels(t.Labels))
	}
	if len(t.Annotations) > 0 {
		fs = append(fs, transform.AddAnnotations(t.Annotations))
	}
	if t.JSONPatch != nil {
		patch, err := asJSON(t.JSONPatch)
		if err != nil {
			return nil, errors.Wrap(err, "jsonPatch")
		}
		f, err := transform.JSONPatch(patch)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if t.MergePatch != nil {
		patch, err := asJSON(t.MergePatch)
		if err != nil {
			return nil, errors.Wrap(err, "mergePatch")
		}
		f, err := transform.MergePatch(patch)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	if t.StripStatus {
		fs = append(fs, transform.StripStatus())
	}
	if len(t.SecretKinds) > 0 {
		fs = append(fs, transform.MarkSecret(t.SecretKinds...))
	}
	return fs, nil
}

// asJSON turns a patch given in the config file, either as a string
// of JSON or YAML, or as YAML structure, into JSON.
func asJSON(v interface{}) ([]byte, error) {
	if s, ok := v.(string); ok {
		return ghodssyaml.YAMLToJSON([]byte(s))
	}
	bytes, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return ghodssyaml.YAMLToJSON(bytes)
}

// stringKeys converts the maps yaml.v2 produces into maps with string
// keys.
func stringKeys(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			c, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[ks] = c
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, e := range v {
			c, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, e := range v {
			c, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	return v, nil
}

// Builder has what's needed to build the sources in a config file.
type Builder struct {
	Ingester    *ingest.Ingester
	Helm        *helm.Renderer
	Kustomize   *kustomize.Renderer
	KubeVersion *semver.Version
	// Runner runs generator commands; a tool.Exec if nil
	Runner tool.Runner
	Logger log.Logger
}

// Build renders every source, and ingests the lot as a single
// batch. Should any source fail, nothing is returned.
func (cf *ConfigFile) Build(ctx context.Context, b Builder) (ingest.Resources, error) {
	logger := b.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	in := b.Ingester
	if in == nil {
		in = &ingest.Ingester{Logger: logger}
	}

	var docs []manifest.Document
	for i, s := range cf.Sources {
		more, err := cf.buildSource(ctx, b, in, i, s)
		if err != nil {
			return nil, errors.Wrapf(err, "source %d of %s", i, cf.Path)
		}
		logger.Log("config", cf.Path, "source", i, "documents", len(more))
		docs = append(docs, more...)
	}

	pipeline, err := cf.Pipeline()
	if err != nil {
		return nil, err
	}
	return in.Ingest(docs, ingest.Options{
		Transformations: pipeline,
		ResourcePrefix:  cf.ResourcePrefix,
		Parent:          cf.Path,
		KubeVersion:     b.KubeVersion,
	})
}

func (cf *ConfigFile) buildSource(ctx context.Context, b Builder, in *ingest.Ingester, i int, s Source) ([]manifest.Document, error) {
	switch {
	case len(s.Files) > 0:
		paths := make([]string, len(s.Files))
		for j, f := range s.Files {
			paths[j] = cf.resolve(f)
		}
		return manifest.Load(ctx, paths, in.Load)
	case s.YAML != "":
		return manifest.Parse([]byte(s.YAML), fmt.Sprintf("%s#sources[%d]", cf.Path, i))
	case s.Kustomize != "":
		if b.Kustomize == nil {
			return nil, errors.New("no kustomize renderer configured")
		}
		dir := kustomize.Directory{Path: cf.resolve(s.Kustomize)}
		out, err := b.Kustomize.Build(ctx, dir)
		if err != nil {
			return nil, err
		}
		return manifest.Parse(out, "kustomize:"+dir.Path)
	case s.Helm != nil:
		if b.Helm == nil {
			return nil, errors.New("no helm renderer configured")
		}
		opts := s.Helm.chartOpts(cf)
		out, err := b.Helm.Template(ctx, opts)
		if err != nil {
			return nil, err
		}
		docs, err := manifest.Parse(out, "chart:"+opts.Name())
		if err != nil || opts.Namespace == "" {
			return docs, err
		}
		// as the chart renderer would
		defaultNS := transform.Pipeline{transform.DefaultNamespace(opts.Namespace)}
		for j := range docs {
			if docs[j], err = defaultNS.Apply(docs[j], &resource.Options{}); err != nil {
				return nil, err
			}
		}
		return docs, nil
	case s.Generator != nil:
		result := cf.ExecGenerator(ctx, b.Runner, *s.Generator)
		if result.Error != nil {
			return nil, errors.Wrapf(result.Error, "running generator %q", s.Generator.Command)
		}
		return manifest.Parse(result.Stdout, fmt.Sprintf("generator:%s", s.Generator.Command))
	}
	return nil, errors.New("empty source")
}

func (h *HelmSource) chartOpts(cf *ConfigFile) helm.ChartOpts {
	opts := helm.ChartOpts{
		Chart:       h.Chart,
		Repo:        h.Repo,
		Version:     h.Version,
		FetchOpts:   h.Fetch,
		Values:      h.Values,
		Namespace:   h.Namespace,
		APIVersions: h.APIVersions,
		IncludeCRDs: h.IncludeCRDs,
		ReleaseName: h.ReleaseName,
	}
	if h.Path != "" {
		opts.Path = cf.resolve(h.Path)
	}
	for _, f := range h.ValuesFiles {
		opts.ValuesFiles = append(opts.ValuesFiles, cf.resolve(f))
	}
	return opts
}

// resolve makes a path relative to the config file's directory,
// leaving URLs and absolute paths alone.
func (cf *ConfigFile) resolve(path string) string {
	if filepath.IsAbs(path) || isURL(path) || cf.WorkingDir == "" {
		return path
	}
	return filepath.Join(cf.WorkingDir, path)
}

func isURL(p string) bool {
	for _, prefix := range []string{"http://", "https://", "git::", "github.com/"} {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

type ConfigFileExecResult struct {
	Error  error
	Stderr []byte
	Stdout []byte
}

// ExecGenerator runs the generator's command in the config file's
// directory, with runner, or a tool.Exec if runner is nil.
func (cf *ConfigFile) ExecGenerator(ctx context.Context, runner tool.Runner, g Generator) ConfigFileExecResult {
	if runner == nil {
		runner = tool.Exec{}
	}
	cmdCtx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()
	stdout, err := runner.Run(cmdCtx, tool.Command{
		Name: "/bin/sh",
		Args: []string{"-c", g.Command},
		Env:  []string{"KUBEINGEST_CONFIG=" + cf.Path},
		Dir:  cf.WorkingDir,
	})
	result := ConfigFileExecResult{Stdout: stdout, Error: err}
	var exitErr *tool.ExitError
	if errors.As(err, &exitErr) {
		result.Stderr = exitErr.Stderr
	}
	if cmdCtx.Err() == context.DeadlineExceeded {
		result.Error = cmdCtx.Err()
	} else if cmdCtx.Err() == context.Canceled {
		result.Error = errors.Wrap(ctx.Err(), "context was unexpectedly cancelled")
	}
	return result
}
