package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sops "github.com/getsops/sops/v3"
	"github.com/getsops/sops/v3/decrypt"
	"github.com/pkg/errors"
)

// LoadOptions control how Load reads manifests.
type LoadOptions struct {
	// SopsEnabled means sops-encrypted files are decrypted
	SopsEnabled bool
	// Client is used for http(s) URLs; http.DefaultClient if nil
	Client *http.Client
}

// Load takes paths to files or directories, glob patterns and
// http(s) URLs, and returns the documents found, in the order given.
// Files within a directory are read in lexical order. Directories
// that look like Helm charts are skipped, since their templates are
// not manifests.
func Load(ctx context.Context, paths []string, opts LoadOptions) ([]Document, error) {
	var docs []Document
	for _, p := range paths {
		if isURL(p) {
			bytes, err := fetch(ctx, opts.Client, p)
			if err != nil {
				return nil, err
			}
			fromURL, err := Parse(bytes, p)
			if err != nil {
				return nil, err
			}
			docs = append(docs, fromURL...)
			continue
		}

		matches, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			fromPath, err := loadPath(match, opts.SopsEnabled)
			if err != nil {
				return nil, err
			}
			docs = append(docs, fromPath...)
		}
	}
	return docs, nil
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// expand resolves glob patterns. A pattern that matches nothing is an
// error, as is a plain path that doesn't exist.
func expand(p string) ([]string, error) {
	if !strings.ContainsAny(p, "*?[") {
		if _, err := os.Stat(p); err != nil {
			return nil, errors.Wrapf(err, "reading manifests from %q", p)
		}
		return []string{p}, nil
	}
	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding %q", p)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %q", p)
	}
	sort.Strings(matches)
	return matches, nil
}

func loadPath(root string, sopsEnabled bool) ([]Document, error) {
	var docs []Document
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %q for manifests", path)
		}
		if info.IsDir() {
			if path != root && looksLikeChart(path) {
				return filepath.SkipDir
			}
			return nil
		}
		// A file named explicitly is read whatever its extension
		if path != root && !isManifestFile(path) {
			return nil
		}
		bytes, err := loadFile(path, sopsEnabled)
		if err != nil {
			return errors.Wrapf(err, "unable to read file at %q", path)
		}
		fromFile, err := Parse(bytes, path)
		if err != nil {
			return err
		}
		docs = append(docs, fromFile...)
		return nil
	})
	return docs, err
}

func isManifestFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// looksLikeChart returns `true` if the path `dir` (assumed to be a
// directory) looks like it contains a Helm chart, rather than
// manifest files.
func looksLikeChart(dir string) bool {
	// These are the two mandatory parts of a chart. If they both
	// exist, chances are it's a chart. See
	// https://helm.sh/docs/topics/charts/#the-chart-file-structure
	chartpath := filepath.Join(dir, "Chart.yaml")
	valuespath := filepath.Join(dir, "values.yaml")
	if _, err := os.Stat(chartpath); err != nil && os.IsNotExist(err) {
		return false
	}
	if _, err := os.Stat(valuespath); err != nil && os.IsNotExist(err) {
		return false
	}
	return true
}

// loadFile attempts to load a file from the path supplied. If sopsEnabled is set,
// it will try to decrypt it before returning the data
func loadFile(path string, sopsEnabled bool) ([]byte, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if sopsEnabled {
		return softDecrypt(bytes, path)
	}
	return bytes, nil
}

// softDecrypt takes data from a file and tries to decrypt it with sops,
// if the file has not been encrypted with sops, the original data will be returned
func softDecrypt(rawData []byte, path string) ([]byte, error) {
	format := "yaml"
	if filepath.Ext(path) == ".json" {
		format = "json"
	}
	decryptedData, err := decrypt.Data(rawData, format)
	if err == sops.MetadataNotFound {
		return rawData, nil
	} else if err != nil {
		return rawData, errors.Wrap(err, "failed to decrypt file")
	}
	return decryptedData, nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "constructing request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status)
	}
	bytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading response from %s", url)
	}
	return bytes, nil
}
