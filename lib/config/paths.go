package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

// CfgPath is a file name read from the config file. Relative names are
// resolved against the directory of the config file and a leading ~/
// against the home directory.
type CfgPath string

// UnmarshalBase is the directory relative paths are resolved against.
// Parse sets it before decoding.
var UnmarshalBase string

func (c *CfgPath) UnmarshalYAML(b []byte) error {
	var path string
	if err := yaml.Unmarshal(b, &path); err != nil {
		return err
	}
	resolved, err := resolvePath(UnmarshalBase, path)
	if err != nil {
		return err
	}
	*c = CfgPath(resolved)
	return nil
}

func resolvePath(base, path string) (string, error) {
	switch {
	case path == "":
		return "", nil
	case path == "~" || strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not expand %s: %w", path, err)
		}
		return filepath.Join(home, path[1:]), nil
	case filepath.IsAbs(path):
		return filepath.Clean(path), nil
	}
	return filepath.Join(base, path), nil
}
