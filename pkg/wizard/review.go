package wizard

import (
	"context"
	"fmt"

	"github.com/walteh/mkpkg/pkg/settings"
)

// Review hub menu labels.
const (
	actionCreate      = "Create package"
	actionType        = "Edit type"
	actionName        = "Edit name"
	actionDescription = "Edit description"
	actionPath        = "Edit path"
	actionAuthorName  = "Edit author name"
	actionAuthorEmail = "Edit author email"
	actionRepo        = "Edit repository"
	actionMonorepo    = "Toggle monorepo"
	actionManager     = "Edit package manager"
)

// reviewLoop renders the record, offers single-field edits, and loops each
// edit back into itself. It returns once a create attempt passes the gate.
func (w *Wizard) reviewLoop(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	for {
		w.renderSummary(s)

		options := w.reviewOptions(s)
		choice, err := w.prompter.Select(ctx, "What next?", options, options[0])
		if err != nil {
			return s, err
		}

		if choice == actionCreate {
			if !w.createGate(ctx, s) {
				continue
			}
			return s, nil
		}

		st, ok := w.editStep(choice)
		if !ok {
			continue
		}
		s, err = st(ctx, s)
		if err != nil {
			return s, err
		}
	}
}

// reviewOptions builds the hub menu. Create leads the list once the record
// carries enough to generate from.
func (w *Wizard) reviewOptions(s settings.Settings) []string {
	var options []string
	if s.Type != "" && s.Name != "" && s.Path != "" {
		options = append(options, actionCreate)
	}
	options = append(options,
		actionType,
		actionName,
		actionDescription,
		actionPath,
		actionAuthorName,
		actionAuthorEmail,
		actionRepo,
		actionMonorepo,
		actionManager,
	)
	return options
}

func (w *Wizard) editStep(choice string) (step, bool) {
	switch choice {
	case actionType:
		return w.stepType, true
	case actionName:
		return w.stepName, true
	case actionDescription:
		return w.stepDescription, true
	case actionPath:
		return w.stepPath, true
	case actionAuthorName:
		return w.stepAuthorName, true
	case actionAuthorEmail:
		return w.stepAuthorEmail, true
	case actionRepo:
		return w.stepEditRepo, true
	case actionMonorepo:
		return w.stepMonorepo, true
	case actionManager:
		return w.stepManager, true
	}
	return nil, false
}

func (w *Wizard) renderSummary(s settings.Settings) {
	w.console.LogNewline()
	w.console.Header("Package settings")
	w.console.Field("type", valueOrDash(string(s.Type)))
	w.console.Field("name", valueOrDash(s.Name))
	w.console.Field("description", valueOrDash(s.Description))
	w.console.Field("path", valueOrDash(s.Path))
	w.console.Field("author", formatAuthor(s))
	w.console.Field("repository", formatRepo(s))
	w.console.Field("monorepo", formatBool(s.Monorepo))
	w.console.Field("package manager", valueOrDash(string(s.PackageManager)))
	if s.GithubUsername != "" {
		w.console.Field("github", formatAccount(s))
	}
	w.console.LogNewline()
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func formatAuthor(s settings.Settings) string {
	switch {
	case s.AuthorName != "" && s.AuthorEmail != "":
		return fmt.Sprintf("%s <%s>", s.AuthorName, s.AuthorEmail)
	case s.AuthorName != "":
		return s.AuthorName
	case s.AuthorEmail != "":
		return s.AuthorEmail
	}
	return "-"
}

func formatRepo(s settings.Settings) string {
	if s.Repo == "" {
		return "local only"
	}
	if s.RepoInherited {
		return s.Repo + " (inherited)"
	}
	return s.Repo
}

func formatAccount(s settings.Settings) string {
	if s.GithubToken != "" {
		return s.GithubUsername + " (authenticated)"
	}
	return s.GithubUsername
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
