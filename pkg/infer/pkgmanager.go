package infer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/walteh/mkpkg/pkg/settings"
	"github.com/walteh/mkpkg/pkg/shell"
)

// 🧰 Detector picks the node package manager to scaffold with.
// Chain: an already-set value > the workspace root's declared manager >
// the nearest corepack pin or lockfile walking up from the invoke dir >
// the first of pnpm/yarn/npm installed on PATH.
type Detector struct {
	runner shell.Runner
}

// NewDetector creates a package manager detector.
func NewDetector(runner shell.Runner) *Detector {
	return &Detector{runner: runner}
}

// DetectPackageManager returns settings with PackageManager populated when
// any signal source yields one. No signal leaves it unset.
func (d *Detector) DetectPackageManager(ctx context.Context, s settings.Settings) settings.Settings {
	logger := zerolog.Ctx(ctx)
	if s.PackageManager != "" {
		return s
	}
	next := s

	// A declared workspace pins the whole tree to the root's manager.
	if root := d.gitRoot(ctx, s.InvokeDir); root != "" {
		if _, declared, err := LoadWorkspace(root); err != nil {
			logger.Debug().Err(err).Msg("workspace declarations unreadable")
		} else if declared {
			if pm, ok := managerAt(ctx, root); ok {
				logger.Debug().Str("manager", string(pm)).Str("root", root).Msg("workspace root declares a manager")
				next.PackageManager = pm
				return next
			}
		}
	}

	for dir := s.InvokeDir; ; dir = filepath.Dir(dir) {
		if pm, ok := managerAt(ctx, dir); ok {
			logger.Debug().Str("manager", string(pm)).Str("dir", dir).Msg("manager signal found")
			next.PackageManager = pm
			return next
		}
		if dir == filepath.Dir(dir) {
			break
		}
	}

	for _, pm := range []settings.PackageManager{settings.Pnpm, settings.Yarn, settings.Npm} {
		if _, err := d.runner.RunShell(ctx, "command -v "+string(pm)); err == nil {
			logger.Debug().Str("manager", string(pm)).Msg("manager found on PATH")
			next.PackageManager = pm
			return next
		}
	}

	logger.Debug().Msg("no package manager detected")
	return next
}

func (d *Detector) gitRoot(ctx context.Context, dir string) string {
	out, err := d.runner.Run(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return ""
	}
	return out
}

func managerAt(ctx context.Context, dir string) (settings.PackageManager, bool) {
	if pm, ok := managerFromCorepack(ctx, dir); ok {
		return pm, true
	}
	return managerFromLockfiles(dir)
}

// managerFromCorepack reads the corepack packageManager pin, shaped
// "name@version". A pin that does not parse is ignored rather than
// trusted.
func managerFromCorepack(ctx context.Context, dir string) (settings.PackageManager, bool) {
	logger := zerolog.Ctx(ctx)

	manifest, found, err := readPackageJSON(dir)
	if err != nil {
		logger.Debug().Err(err).Str("dir", dir).Msg("manifest unreadable")
		return "", false
	}
	if !found || manifest.PackageManager == "" {
		return "", false
	}

	name, version, ok := strings.Cut(manifest.PackageManager, "@")
	if !ok {
		return "", false
	}
	if _, err := semver.NewVersion(version); err != nil {
		logger.Debug().Str("pin", manifest.PackageManager).Msg("corepack pin has an invalid version")
		return "", false
	}
	pm, err := settings.ParsePackageManager(name)
	if err != nil {
		return "", false
	}
	return pm, true
}

func managerFromLockfiles(dir string) (settings.PackageManager, bool) {
	lockfiles := []struct {
		file string
		pm   settings.PackageManager
	}{
		{"pnpm-lock.yaml", settings.Pnpm},
		{"yarn.lock", settings.Yarn},
		{"package-lock.json", settings.Npm},
	}
	for _, lf := range lockfiles {
		if _, err := os.Stat(filepath.Join(dir, lf.file)); err == nil {
			return lf.pm, true
		}
	}
	return "", false
}
