package application

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/upkeeper/upkeeper/domain"
	"github.com/upkeeper/upkeeper/infrastructure/updater"
)

// Pipeline drives one update capability end to end for a single update
// policy: fetch files, parse dependencies, and per dependency check,
// compute the update, open a change request and apply automerge automation.
type Pipeline struct {
	provider domain.Provider
	updaters *updater.Registry
}

// NewPipeline creates a pipeline backed by the given provider and
// capability registry.
func NewPipeline(provider domain.Provider, updaters *updater.Registry) *Pipeline {
	return &Pipeline{provider: provider, updaters: updaters}
}

// Run executes the pipeline for one policy. It reports exclusively through
// logging and the change request / work item side effects.
func (p *Pipeline) Run(
	ctx context.Context,
	project domain.Project,
	repo domain.Repository,
	policy *domain.UpdatePolicy,
	opts RunOptions,
) error {
	scope := trail(
		p.provider.Organization(), project.Name, repo.Name,
		string(policy.PackageManager),
	)

	if !policy.RunsToday {
		logger.Infof("%s", trail(scope, "skipping, not scheduled to run today"))
		return nil
	}

	capability, err := p.updaters.Get(policy.PackageManager)
	if err != nil {
		return err
	}

	src := domain.Source{
		Host:         p.provider.Host(),
		Organization: p.provider.Organization(),
		Project:      project.Name,
		Repository:   repo.Name,
		Directory:    policy.Directory,
	}

	files, commit, err := capability.FetchFiles(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to fetch dependency files: %w", err)
	}

	deps, err := capability.ParseDependencies(ctx, files, src)
	if err != nil {
		return fmt.Errorf("failed to parse dependencies: %w", err)
	}

	for _, dep := range deps {
		if !dep.TopLevel {
			continue
		}
		if err := p.processDependency(ctx, capability, project, repo, policy, src, commit, files, dep, scope, opts); err != nil {
			return err
		}
	}

	return nil
}

// processDependency walks one dependency through its lifecycle:
// ignored, up to date, unupdatable, or updated with a change request.
func (p *Pipeline) processDependency(
	ctx context.Context,
	capability domain.Updater,
	project domain.Project,
	repo domain.Repository,
	policy *domain.UpdatePolicy,
	src domain.Source,
	commit string,
	files []domain.DependencyFile,
	dep domain.Dependency,
	scope string,
	opts RunOptions,
) error {
	depScope := trail(scope, dep.Name)

	if domain.MatchesName(dep.Name, policy.IgnoreNames) {
		logger.Infof("%s", trail(depScope, "ignored by configuration"))
		return nil
	}

	upToDate, err := capability.UpToDate(ctx, dep, files)
	if err != nil {
		return fmt.Errorf("failed to check %q for updates: %w", dep.Name, err)
	}
	if upToDate {
		logger.Infof("%s", trail(depScope, "is up to date"))
		return nil
	}

	unlock, ok, err := p.probeUnlock(ctx, capability, dep, files)
	if err != nil {
		return err
	}
	if !ok {
		logger.Infof("%s", trail(depScope, "cannot be updated"))
		return nil
	}

	updatedDeps, err := capability.UpdatedDependencies(ctx, dep, files, unlock)
	if err != nil {
		return fmt.Errorf("failed to compute updated versions of %q: %w", dep.Name, err)
	}
	if len(updatedDeps) == 0 {
		logger.Infof("%s", trail(depScope, "cannot be updated"))
		return nil
	}

	logger.Infof("%s", trail(depScope, fmt.Sprintf("updating %s to %s", dep.Version, updatedDeps[0].Version)))

	updatedFiles, err := capability.UpdatedFiles(ctx, updatedDeps, files)
	if err != nil {
		return fmt.Errorf("failed to compute updated files for %q: %w", dep.Name, err)
	}

	if opts.DryRun {
		logger.Infof("%s", trail(depScope, "[DRY RUN] would create change request"))
		return nil
	}

	cr, err := capability.CreateChangeRequest(ctx, src, commit, updatedDeps, updatedFiles)
	if err != nil {
		return fmt.Errorf("failed to create change request for %q: %w", dep.Name, err)
	}
	if cr == nil {
		logger.Infof("%s", trail(depScope, "change request already exists"))
		return nil
	}

	logger.Infof("%s", trail(depScope, fmt.Sprintf("created change request #%d", cr.ID)))

	if !domain.MatchesName(dep.Name, policy.AutomergeNames) {
		return nil
	}

	if err := p.provider.SetAutoComplete(ctx, project.ID, repo.ID, *cr); err != nil {
		return err
	}
	if err := p.provider.ApproveChangeRequest(ctx, project.ID, repo.ID, *cr); err != nil {
		return err
	}

	logger.Infof("%s", trail(depScope, fmt.Sprintf("enabled auto-complete on change request #%d", cr.ID)))
	return nil
}

// probeUnlock finds the least disruptive unlock tier that permits an
// update, probing in the fixed none -> own -> all order.
func (p *Pipeline) probeUnlock(
	ctx context.Context,
	capability domain.Updater,
	dep domain.Dependency,
	files []domain.DependencyFile,
) (domain.UnlockRequirements, bool, error) {
	for _, tier := range domain.UnlockProbeOrder {
		can, err := capability.CanUpdate(ctx, dep, files, tier)
		if err != nil {
			return "", false, fmt.Errorf("failed to probe update of %q at unlock tier %q: %w", dep.Name, tier, err)
		}
		if can {
			return tier, true, nil
		}
	}
	return "", false, nil
}
