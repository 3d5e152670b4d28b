// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/walteh/mkpkg/pkg/settings"
)

// 🔌 Parser is the interface for defaults-file parsers
type Parser interface {
	// 📝 Parse parses the defaults from bytes
	Parse(ctx context.Context, data []byte) (*Defaults, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Defaults are the user-level answers that pre-seed a wizard run so
// repeat users skip re-answering. Every field is optional.
type Defaults struct {
	AuthorName     string `json:"author_name,omitempty" yaml:"author_name,omitempty" hcl:"author_name,optional"`
	AuthorEmail    string `json:"author_email,omitempty" yaml:"author_email,omitempty" hcl:"author_email,optional"`
	PackageManager string `json:"package_manager,omitempty" yaml:"package_manager,omitempty" hcl:"package_manager,optional"`
	GitProtocol    string `json:"git_protocol,omitempty" yaml:"git_protocol,omitempty" hcl:"git_protocol,optional"`
	Type           string `json:"type,omitempty" yaml:"type,omitempty" hcl:"type,optional"`

	location string
}

// Location returns the path the defaults were loaded from.
func (d *Defaults) Location() string {
	return d.location
}

// 🎯 Load loads the defaults from a file. The format is chosen by file
// extension; a bare ".mkpkg" file is tried as YAML first, then HCL.
func Load(ctx context.Context, path string) (*Defaults, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading defaults")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading defaults file: %w", err)
	}

	var d *Defaults
	if isBareFile(path) {
		d, err = sniffParse(ctx, data)
	} else {
		p := GetParser(path)
		if p == nil {
			return nil, errors.Errorf("no parser found for file: %s", path)
		}
		d, err = p.Parse(ctx, data)
	}
	if err != nil {
		return nil, errors.Errorf("parsing defaults: %w", err)
	}

	if err := d.Validate(); err != nil {
		return nil, errors.Errorf("validating defaults: %w", err)
	}

	d.location = path
	return d, nil
}

// 🔍 Validate checks that every set field parses to a legal value
func (d *Defaults) Validate() error {
	if d.PackageManager != "" {
		if _, err := settings.ParsePackageManager(d.PackageManager); err != nil {
			return errors.Errorf("package_manager: %w", err)
		}
	}
	if d.GitProtocol != "" {
		if _, err := settings.ParseGitProtocol(d.GitProtocol); err != nil {
			return errors.Errorf("git_protocol: %w", err)
		}
	}
	if d.Type != "" {
		if _, err := settings.ParsePackageType(d.Type); err != nil {
			return errors.Errorf("type: %w", err)
		}
	}
	return nil
}

// 🎯 Apply copies set defaults onto unset settings fields
func (d *Defaults) Apply(s settings.Settings) settings.Settings {
	if d == nil {
		return s
	}
	if s.AuthorName == "" {
		s.AuthorName = d.AuthorName
	}
	if s.AuthorEmail == "" {
		s.AuthorEmail = d.AuthorEmail
	}
	if s.PackageManager == "" && d.PackageManager != "" {
		s.PackageManager = settings.PackageManager(d.PackageManager)
	}
	if d.GitProtocol != "" {
		s.GitProtocol = settings.GitProtocol(d.GitProtocol)
	}
	if d.Type != "" {
		s.Type = settings.PackageType(d.Type)
	}
	return s
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Defaults, error) {
	var d Defaults
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &d, nil
}
