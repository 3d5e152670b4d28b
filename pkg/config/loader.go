package config

import (
	"context"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// defaultsNames is the search order inside the home directory.
var defaultsNames = []string{
	".mkpkg.yaml",
	".mkpkg.yml",
	".mkpkg.hcl",
	".mkpkg.json",
	".mkpkg",
}

// Locate returns the path of the user defaults file under dir, or "" when
// none exists. Candidates are tried in a fixed order so a stray second file
// never changes behavior between runs.
func Locate(dir string) string {
	for _, name := range defaultsNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadUserDefaults loads the defaults file from the user's home directory.
// A missing file is not an error: it returns empty defaults.
func LoadUserDefaults(ctx context.Context) (*Defaults, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Errorf("resolving home directory: %w", err)
	}

	path := Locate(home)
	if path == "" {
		return &Defaults{}, nil
	}
	return Load(ctx, path)
}

// isBareFile reports whether path is an extensionless ".mkpkg" file, which
// gets format-sniffed instead of extension-dispatched.
func isBareFile(path string) bool {
	return filepath.Base(path) == ".mkpkg"
}

// sniffParse tries the bare-file formats in order: YAML first, then HCL.
func sniffParse(ctx context.Context, data []byte) (*Defaults, error) {
	d, yamlErr := (&YAMLParser{}).Parse(ctx, data)
	if yamlErr == nil {
		return d, nil
	}

	d, hclErr := (&HCLParser{}).Parse(ctx, data)
	if hclErr == nil {
		return d, nil
	}

	return nil, errors.Errorf("failed to parse .mkpkg as YAML or HCL: %w", hclErr)
}
