package infer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/mkpkg/pkg/settings"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// detectorAt builds a detector whose git-root probe answers root, or fails
// when root is empty.
func detectorAt(invokeDir, root string) (*Detector, *fakeRunner) {
	runner := newFakeRunner()
	key := "git -C " + invokeDir + " rev-parse --show-toplevel"
	if root == "" {
		runner.failures[key] = true
	} else {
		runner.responses[key] = root
	}
	return NewDetector(runner), runner
}

func TestDetectKeepsExplicitManager(t *testing.T) {
	detector, runner := detectorAt(t.TempDir(), "")

	s := settings.New(t.TempDir())
	s.PackageManager = settings.Yarn

	got := detector.DetectPackageManager(context.Background(), s)
	assert.Equal(t, settings.Yarn, got.PackageManager, "an explicit manager is never rederived")
	assert.Empty(t, runner.calls, "an explicit manager needs no probing")
}

func TestDetectCorepackPin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"packageManager":"pnpm@9.1.0"}`)

	detector, _ := detectorAt(dir, "")

	got := detector.DetectPackageManager(context.Background(), settings.New(dir))
	assert.Equal(t, settings.Pnpm, got.PackageManager, "the corepack pin should win")
}

func TestDetectInvalidCorepackPinFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"packageManager":"pnpm@latest"}`)
	writeFile(t, dir, "yarn.lock", "")

	detector, _ := detectorAt(dir, "")

	got := detector.DetectPackageManager(context.Background(), settings.New(dir))
	assert.Equal(t, settings.Yarn, got.PackageManager, "an unparseable pin should fall through to lockfiles")
}

func TestDetectLockfilePriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pnpm-lock.yaml", "")
	writeFile(t, dir, "yarn.lock", "")
	writeFile(t, dir, "package-lock.json", "{}")

	detector, _ := detectorAt(dir, "")

	got := detector.DetectPackageManager(context.Background(), settings.New(dir))
	assert.Equal(t, settings.Pnpm, got.PackageManager, "pnpm outranks yarn outranks npm")
}

func TestDetectWalksUpFromInvokeDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "packages", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, root, "yarn.lock", "")

	detector, _ := detectorAt(nested, "")

	got := detector.DetectPackageManager(context.Background(), settings.New(nested))
	assert.Equal(t, settings.Yarn, got.PackageManager, "signals above the invoke dir should be found")
}

func TestDetectWorkspaceRootOutranksNearerSignal(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "packages", "app")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, root, "pnpm-workspace.yaml", "packages:\n  - packages/*\n")
	writeFile(t, root, "pnpm-lock.yaml", "")
	writeFile(t, nested, "package-lock.json", "{}")

	detector, _ := detectorAt(nested, root)

	got := detector.DetectPackageManager(context.Background(), settings.New(nested))
	assert.Equal(t, settings.Pnpm, got.PackageManager, "a declared workspace pins the root's manager")
}

func TestDetectProbesPath(t *testing.T) {
	dir := t.TempDir()
	detector, runner := detectorAt(dir, "")
	runner.failures["sh -c command -v pnpm"] = true
	runner.responses["sh -c command -v yarn"] = "/usr/bin/yarn"

	got := detector.DetectPackageManager(context.Background(), settings.New(dir))
	assert.Equal(t, settings.Yarn, got.PackageManager, "the first installed manager should be picked")
}

func TestDetectNothingLeavesUnset(t *testing.T) {
	dir := t.TempDir()
	detector, runner := detectorAt(dir, "")
	runner.failures["sh -c command -v pnpm"] = true
	runner.failures["sh -c command -v yarn"] = true
	runner.failures["sh -c command -v npm"] = true

	got := detector.DetectPackageManager(context.Background(), settings.New(dir))
	assert.Empty(t, got.PackageManager, "no signal leaves the manager unset")
}
