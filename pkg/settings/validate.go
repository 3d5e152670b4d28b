package settings

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

	// Remote URL shapes we accept: https, scp-like ssh, explicit ssh scheme.
	httpsURLPattern = regexp.MustCompile(`^https://[^/\s]+/\S+$`)
	scpURLPattern   = regexp.MustCompile(`^git@[^:\s]+:\S+$`)
	sshURLPattern   = regexp.MustCompile(`^ssh://\S+$`)
)

// Names that collide with tooling or OS device files.
var reservedNames = map[string]bool{
	"node_modules": true,
	"favicon.ico":  true,
	"con":          true,
	"prn":          true,
	"aux":          true,
	"nul":          true,
	"com1":         true,
	"lpt1":         true,
}

// 🔍 ValidateName checks a package name: lowercase letters, digits and
// hyphens only, no leading/trailing hyphen, not a reserved name.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name must not be empty")
	}
	if len(name) > 214 {
		return errors.Errorf("name must be at most 214 characters, got %d", len(name))
	}
	if !namePattern.MatchString(name) {
		return errors.Errorf("name %q must contain only lowercase letters, digits and hyphens", name)
	}
	if strings.HasSuffix(name, "-") {
		return errors.Errorf("name %q must not end with a hyphen", name)
	}
	if reservedNames[name] {
		return errors.Errorf("name %q is reserved", name)
	}
	return nil
}

// 🔍 ValidateDescription checks a description: empty is allowed, otherwise
// the length must be between 10 and 500 characters.
func ValidateDescription(desc string) error {
	if desc == "" {
		return nil
	}
	if len(desc) < 10 || len(desc) > 500 {
		return errors.Errorf("description must be between 10 and 500 characters, got %d", len(desc))
	}
	return nil
}

// 🔍 ValidateRepoURL checks a git remote URL shape. Empty is allowed and
// means "create a local repository".
func ValidateRepoURL(url string) error {
	if url == "" {
		return nil
	}
	if httpsURLPattern.MatchString(url) || scpURLPattern.MatchString(url) || sshURLPattern.MatchString(url) {
		return nil
	}
	return errors.Errorf("repository URL %q must look like https://..., git@...:... or ssh://...", url)
}

// ParsePackageType parses a package type value from flags or config.
func ParsePackageType(s string) (PackageType, error) {
	switch PackageType(s) {
	case TypeLibrary, TypeApplication:
		return PackageType(s), nil
	}
	return "", errors.Errorf("unknown package type %q (want library or application)", s)
}

// ParsePackageManager parses a package manager value from flags or config.
func ParsePackageManager(s string) (PackageManager, error) {
	switch PackageManager(s) {
	case Pnpm, Yarn, Npm:
		return PackageManager(s), nil
	}
	return "", errors.Errorf("unknown package manager %q (want pnpm, yarn or npm)", s)
}

// ParseGitProtocol parses a git protocol value from flags or config.
func ParseGitProtocol(s string) (GitProtocol, error) {
	switch GitProtocol(s) {
	case ProtocolSSH, ProtocolHTTPS:
		return GitProtocol(s), nil
	}
	return "", errors.Errorf("unknown git protocol %q (want ssh or https)", s)
}
