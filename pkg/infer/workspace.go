package infer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Workspace is the set of package globs a repo root declares, from
// pnpm-workspace.yaml or the package.json workspaces field.
type Workspace struct {
	Root  string
	Globs []string
}

// pnpmWorkspaceFile is the shape of pnpm-workspace.yaml.
type pnpmWorkspaceFile struct {
	Packages []string `yaml:"packages"`
}

// packageJSON carries the manifest fields detection cares about.
// Workspaces stays raw because it is either a list or an object holding
// a list.
type packageJSON struct {
	PackageManager string          `json:"packageManager"`
	Workspaces     json.RawMessage `json:"workspaces"`
}

func readPackageJSON(dir string) (packageJSON, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return packageJSON{}, false, nil
		}
		return packageJSON{}, false, errors.Errorf("reading package.json: %w", err)
	}
	var manifest packageJSON
	if err := json.Unmarshal(data, &manifest); err != nil {
		return packageJSON{}, false, errors.Errorf("parsing package.json: %w", err)
	}
	return manifest, true, nil
}

func (m packageJSON) workspaceGlobs() ([]string, error) {
	if len(m.Workspaces) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(m.Workspaces, &list); err == nil {
		return list, nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(m.Workspaces, &obj); err != nil {
		return nil, errors.Errorf("parsing workspaces field: %w", err)
	}
	return obj.Packages, nil
}

// LoadWorkspace reads workspace declarations at root. pnpm-workspace.yaml
// wins over package.json workspaces. The second return is false when
// neither file declares any globs.
func LoadWorkspace(root string) (Workspace, bool, error) {
	data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml"))
	switch {
	case err == nil:
		var file pnpmWorkspaceFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Workspace{}, false, errors.Errorf("parsing pnpm-workspace.yaml: %w", err)
		}
		if len(file.Packages) > 0 {
			return Workspace{Root: root, Globs: file.Packages}, true, nil
		}
	case !os.IsNotExist(err):
		return Workspace{}, false, errors.Errorf("reading pnpm-workspace.yaml: %w", err)
	}

	manifest, found, err := readPackageJSON(root)
	if err != nil {
		return Workspace{}, false, err
	}
	if !found {
		return Workspace{}, false, nil
	}
	globs, err := manifest.workspaceGlobs()
	if err != nil {
		return Workspace{}, false, err
	}
	if len(globs) == 0 {
		return Workspace{}, false, nil
	}
	return Workspace{Root: root, Globs: globs}, true, nil
}

// Contains reports whether path (relative to the workspace root) falls
// inside one of the declared globs, directly or nested below a match.
func (w Workspace) Contains(path string) bool {
	rel := filepath.ToSlash(filepath.Clean(path))
	if rel == "." || rel == "" {
		return false
	}
	for _, glob := range w.Globs {
		glob = filepath.ToSlash(glob)
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(glob+"/**", rel); err == nil && ok {
			return true
		}
	}
	return false
}
