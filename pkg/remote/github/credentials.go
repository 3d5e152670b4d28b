package github

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const defaultHost = "github.com"

// Credentials is the stored login for a host.
type Credentials struct {
	Username    string
	Token       string
	GitProtocol string
}

// ConfigDir returns the directory holding hosts.yml. GH_CONFIG_DIR wins so
// the store stays compatible with gh's own config layout.
func ConfigDir() (string, error) {
	if dir := os.Getenv("GH_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gh"), nil
}

// CredentialStore reads and writes hosts.yml. Writes preserve entries for
// hosts and keys the store does not manage.
type CredentialStore struct {
	dir string
}

// NewCredentialStore creates a store rooted at ConfigDir.
func NewCredentialStore() (*CredentialStore, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, errors.Errorf("locating config dir: %w", err)
	}
	return &CredentialStore{dir: dir}, nil
}

// NewCredentialStoreAt creates a store rooted at an explicit directory.
func NewCredentialStoreAt(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) hostsPath() string {
	return filepath.Join(s.dir, "hosts.yml")
}

// lock acquires an exclusive lock guarding hosts.yml. Caller must defer
// Unlock on the returned lock.
func (s *CredentialStore) lock() (*flock.Flock, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Errorf("creating config dir: %w", err)
	}
	fl := flock.New(s.hostsPath() + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, errors.Errorf("locking hosts file: %w", err)
	}
	return fl, nil
}

// hostsFile is parsed loosely so unknown hosts and keys round-trip intact.
type hostsFile map[string]map[string]any

func (s *CredentialStore) readHosts() (hostsFile, error) {
	data, err := os.ReadFile(s.hostsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return hostsFile{}, nil
		}
		return nil, errors.Errorf("reading hosts file: %w", err)
	}
	hosts := hostsFile{}
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return nil, errors.Errorf("parsing hosts file: %w", err)
	}
	return hosts, nil
}

// Load returns the stored credentials for github.com. A missing file or
// missing host entry is not an error.
func (s *CredentialStore) Load(ctx context.Context) (Credentials, bool, error) {
	fl, err := s.lock()
	if err != nil {
		return Credentials{}, false, err
	}
	defer func() { _ = fl.Unlock() }()

	hosts, err := s.readHosts()
	if err != nil {
		return Credentials{}, false, err
	}
	entry, ok := hosts[defaultHost]
	if !ok {
		return Credentials{}, false, nil
	}

	creds := Credentials{
		Username:    stringValue(entry["user"]),
		Token:       stringValue(entry["oauth_token"]),
		GitProtocol: stringValue(entry["git_protocol"]),
	}
	if creds.Token == "" {
		return Credentials{}, false, nil
	}

	zerolog.Ctx(ctx).Debug().Str("user", creds.Username).Msg("loaded stored credentials")
	return creds, true, nil
}

// Save writes credentials for github.com, keeping every other host and any
// unmanaged keys under github.com untouched.
func (s *CredentialStore) Save(ctx context.Context, creds Credentials) error {
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer func() { _ = fl.Unlock() }()

	hosts, err := s.readHosts()
	if err != nil {
		return err
	}

	entry := hosts[defaultHost]
	if entry == nil {
		entry = map[string]any{}
	}
	entry["user"] = creds.Username
	entry["oauth_token"] = creds.Token
	if creds.GitProtocol != "" {
		entry["git_protocol"] = creds.GitProtocol
	}
	hosts[defaultHost] = entry

	data, err := yaml.Marshal(hosts)
	if err != nil {
		return errors.Errorf("encoding hosts file: %w", err)
	}
	// Tokens live in this file, keep it owner-only.
	if err := os.WriteFile(s.hostsPath(), data, 0o600); err != nil {
		return errors.Errorf("writing hosts file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("user", creds.Username).Msg("stored credentials")
	return nil
}

// Clear removes the github.com entry, leaving other hosts in place.
func (s *CredentialStore) Clear(ctx context.Context) error {
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer func() { _ = fl.Unlock() }()

	hosts, err := s.readHosts()
	if err != nil {
		return err
	}
	if _, ok := hosts[defaultHost]; !ok {
		return nil
	}
	delete(hosts, defaultHost)

	data, err := yaml.Marshal(hosts)
	if err != nil {
		return errors.Errorf("encoding hosts file: %w", err)
	}
	if err := os.WriteFile(s.hostsPath(), data, 0o600); err != nil {
		return errors.Errorf("writing hosts file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Msg("cleared stored credentials")
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
