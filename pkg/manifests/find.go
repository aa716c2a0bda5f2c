package manifests

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrConfigFileNotFound is returned by FindConfigFile when there's no
// config file to be found.
var ErrConfigFileNotFound = errors.New("config file not found")

// FindConfigFile looks for a config file for initialPath. The path
// can be a config file itself; otherwise, the directory and each of
// its parents up to baseDir are searched. It returns the path of the
// config file found.
func FindConfigFile(baseDir string, initialPath string) (string, error) {
	fileStat, err := os.Stat(initialPath)
	if err != nil {
		return "", err
	}
	if !fileStat.IsDir() {
		if filepath.Base(initialPath) == ConfigFilename {
			return initialPath, nil
		}
		return "", ErrConfigFileNotFound
	}

	// The initial path must be inside baseDir, so that the search
	// upwards stops somewhere.
	cleanBase, cleanInitial, err := cleanAndEnsureParentPath(baseDir, initialPath)
	if err != nil {
		return "", err
	}

	for path := cleanInitial; ; {
		candidate := filepath.Join(path, ConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if path == cleanBase {
			break
		}
		path = filepath.Dir(path)
	}
	return "", ErrConfigFileNotFound
}

func cleanAndEnsureParentPath(basePath string, childPath string) (string, string, error) {
	cleanBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return "", "", err
	}
	cleanChildPath, err := filepath.Abs(childPath)
	if err != nil {
		return "", "", err
	}
	rel, err := filepath.Rel(cleanBasePath, cleanChildPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", errors.Errorf("path %q is outside of base directory %s", childPath, basePath)
	}
	return cleanBasePath, cleanChildPath, nil
}
