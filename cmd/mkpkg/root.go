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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/mkpkg/pkg/config"
	"github.com/walteh/mkpkg/pkg/generator"
	"github.com/walteh/mkpkg/pkg/log"
	"github.com/walteh/mkpkg/pkg/prompt"
	"github.com/walteh/mkpkg/pkg/remote/github"
	"github.com/walteh/mkpkg/pkg/settings"
	"github.com/walteh/mkpkg/pkg/wizard"
)

var (
	// Flags
	configFile   string
	debugLogging bool

	flagPath        string
	flagName        string
	flagDescription string
	flagType        string
	flagManager     string
	flagGenerator   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkpkg [NAME]",
		Short: "Interactive wizard for scaffolding new packages",
		Long: `mkpkg walks you through creating a new package: it infers your author
identity, git account and package manager, resolves where the package
lives and which repository it pushes to, and hands the confirmed
settings to a generator.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd.Context(), args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "defaults file path (default: ~/.mkpkg.{yaml,yml,hcl,json})")
	cmd.Flags().BoolVarP(&debugLogging, "debug", "d", false, "enable debug logging")
	cmd.Flags().StringVar(&flagPath, "path", "", "target directory for the new package")
	cmd.Flags().StringVar(&flagName, "name", "", "package name")
	cmd.Flags().StringVar(&flagDescription, "description", "", "package description")
	cmd.Flags().StringVar(&flagType, "type", "", "package type (library or application)")
	cmd.Flags().StringVar(&flagManager, "package-manager", "", "package manager (pnpm, yarn or npm)")
	cmd.Flags().StringVar(&flagGenerator, "generator", "", "generator command to run with the resolved settings")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runWizard(ctx context.Context, args []string) error {
	level := zerolog.InfoLevel
	if debugLogging {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Str("run_id", uuid.New().String()).
		Logger()
	ctx = zlog.WithContext(ctx)

	console := log.NewWithLogger(os.Stdout, zlog)

	initial, store, err := seedSettings(ctx, args)
	if err != nil {
		return err
	}

	w := wizard.New(wizard.Options{
		Console:     console,
		Credentials: store,
	})

	resolved, err := w.Run(ctx, initial)
	if errors.Is(err, prompt.ErrCancelled) {
		console.LogNewline()
		console.Info("No changes made. Come back any time.")
		return nil
	}
	if err != nil {
		return err
	}

	return runGenerator(ctx, console, resolved)
}

// seedSettings builds the initial settings record from the working
// directory, stored credentials, the defaults file, and flags.
func seedSettings(ctx context.Context, args []string) (settings.Settings, *github.CredentialStore, error) {
	logger := zerolog.Ctx(ctx)

	cwd, err := os.Getwd()
	if err != nil {
		return settings.Settings{}, nil, errors.Errorf("resolving working directory: %w", err)
	}
	s := settings.New(cwd)

	store, err := github.NewCredentialStore()
	if err != nil {
		logger.Debug().Err(err).Msg("credential store unavailable")
		store = nil
	}
	if store != nil {
		if creds, found, err := store.Load(ctx); err != nil {
			logger.Debug().Err(err).Msg("stored credentials unreadable")
		} else if found {
			logger.Debug().Str("login", creds.Username).Msg("bootstrapping from stored credentials")
			s.GithubUsername = creds.Username
			s.GithubToken = creds.Token
			if proto, err := settings.ParseGitProtocol(creds.GitProtocol); err == nil {
				s.GitProtocol = proto
			}
		}
	}

	defaults, err := loadDefaults(ctx)
	if err != nil {
		return settings.Settings{}, nil, err
	}

	if len(args) > 0 {
		s.Name = args[0]
	} else if flagName != "" {
		s.Name = flagName
	}
	if flagDescription != "" {
		s.Description = flagDescription
	}
	if flagPath != "" {
		s.Path = flagPath
		s.ExplicitPath = true
	}
	if flagType != "" {
		t, err := settings.ParsePackageType(flagType)
		if err != nil {
			return settings.Settings{}, nil, err
		}
		s.Type = t
	}
	if flagManager != "" {
		pm, err := settings.ParsePackageManager(flagManager)
		if err != nil {
			return settings.Settings{}, nil, err
		}
		s.PackageManager = pm
	}

	return defaults.Apply(s), store, nil
}

func loadDefaults(ctx context.Context) (*config.Defaults, error) {
	if configFile != "" {
		d, err := config.Load(ctx, configFile)
		if err != nil {
			return nil, errors.Errorf("loading %s: %w", configFile, err)
		}
		return d, nil
	}
	return config.LoadUserDefaults(ctx)
}

// runGenerator hands the resolved settings to the configured generator, or
// prints the run options when none is configured.
func runGenerator(ctx context.Context, console *log.Logger, s settings.Settings) error {
	opts := generator.FromSettings(s)

	if strings.TrimSpace(flagGenerator) == "" {
		data, err := json.MarshalIndent(opts, "", "  ")
		if err != nil {
			return errors.Errorf("encoding run options: %w", err)
		}
		console.LogNewline()
		console.Info("No generator configured, the resolved run options are:")
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	parts := strings.Fields(flagGenerator)
	gen := generator.NewExecGenerator(parts[0], parts[1:]...)

	console.LogNewline()
	if err := gen.Run(ctx, opts, generator.NewConsoleLogger(console)); err != nil {
		return errors.Errorf("running generator: %w", err)
	}

	console.LogNewline()
	console.Successf("%s is ready at %s", s.Name, targetPath(s))
	return nil
}

func targetPath(s settings.Settings) string {
	if info, ok := s.PathInfo(s.Path); ok {
		return info.AbsolutePath
	}
	return s.Path
}
