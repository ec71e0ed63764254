package application

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/upkeeper/upkeeper/domain"
)

// TicketKind selects which missing configuration a tracking work item is
// raised for.
type TicketKind string

const (
	MissingUpdateConfig   TicketKind = "update-config"
	MissingPipelineConfig TicketKind = "pipeline-config"
)

const (
	workItemTag      = "upkeeper"
	workItemPriority = "1"
	workItemSeverity = "1 - Critical"
)

// TicketManager idempotently ensures a tracking work item exists for a
// repository that is missing required configuration. Idempotency is a
// check-then-create sequence on the exact title; the host has no native
// create-if-absent primitive, so concurrent runs can race (accepted).
type TicketManager struct {
	provider domain.Provider
}

// NewTicketManager creates a ticket manager backed by the given provider.
func NewTicketManager(provider domain.Provider) *TicketManager {
	return &TicketManager{provider: provider}
}

// EnsureWorkItem creates the tracking work item for the repository unless
// one with the same title already exists.
func (m *TicketManager) EnsureWorkItem(
	ctx context.Context,
	project domain.Project,
	repo domain.Repository,
	kind TicketKind,
	opts RunOptions,
) error {
	title := workItemTitle(repo, kind)
	scope := trail(m.provider.Organization(), project.Name, repo.Name)

	count, err := m.provider.CountWorkItemsByTitle(ctx, project.ID, title)
	if err != nil {
		return fmt.Errorf("failed to query work items titled %q: %w", title, err)
	}
	if count > 0 {
		logger.Debugf("%s", trail(scope, fmt.Sprintf("work item %q already exists", title)))
		return nil
	}

	if opts.DryRun {
		logger.Infof("%s", trail(scope, fmt.Sprintf("[DRY RUN] would create work item %q", title)))
		return nil
	}

	item := domain.WorkItem{
		Title:      title,
		Tags:       workItemTag,
		ReproSteps: workItemBody(repo, kind),
		Priority:   workItemPriority,
		Severity:   workItemSeverity,
	}
	if err := m.provider.CreateWorkItem(ctx, project.ID, item); err != nil {
		return fmt.Errorf("failed to create work item %q: %w", title, err)
	}

	logger.Infof("%s", trail(scope, fmt.Sprintf("created work item %q", title)))
	return nil
}

func workItemTitle(repo domain.Repository, kind TicketKind) string {
	if kind == MissingPipelineConfig {
		return fmt.Sprintf("[%s] Configure Azure Pipeline", repo.Name)
	}
	return fmt.Sprintf("[%s] Configure Dependabot", repo.Name)
}

func workItemBody(repo domain.Repository, kind TicketKind) string {
	if kind == MissingPipelineConfig {
		return fmt.Sprintf(
			"The repository %q has no azure-pipelines.yml file. "+
				"Add one at the repository root to build and validate changes, "+
				"including the automated dependency update change requests.",
			repo.Name,
		)
	}
	return fmt.Sprintf(
		"The repository %q has no .dependabot/config.yml file, so its "+
			"dependencies are not kept up to date. Add one declaring the "+
			"package_manager, directory and update_schedule of each ecosystem "+
			"the repository uses.",
		repo.Name,
	)
}
