// Package application contains the orchestration core: the organization
// traversal, the per-repository failure boundary, the update pipeline and
// the tracking ticket bookkeeping.
package application

import (
	"context"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/upkeeper/upkeeper/domain"
)

// Fixed repository-relative configuration paths. The update configuration
// is parsed; the pipeline file is an existence-only check.
const (
	updateConfigPath   = "/.dependabot/config.yml"
	pipelineConfigPath = "/azure-pipelines.yml"
)

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	DryRun        bool
	Verbose       bool
	ProjectFilter string // If set, only process this project (CLI override)
}

// Service walks the organization: projects, repositories and their update
// configuration entries. Each repository runs inside a failure boundary so
// one repository's error never aborts the rest of the run.
type Service struct {
	provider domain.Provider
	pipeline *Pipeline
	tickets  *TicketManager
}

// NewService creates the orchestrator.
func NewService(provider domain.Provider, pipeline *Pipeline, tickets *TicketManager) *Service {
	return &Service{
		provider: provider,
		pipeline: pipeline,
		tickets:  tickets,
	}
}

// Run executes one full traversal. Failures listing projects or
// repositories are fatal; everything below that level is contained.
func (s *Service) Run(ctx context.Context, opts RunOptions) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	// The schedule decision is fixed for the whole run.
	today := time.Now()

	org := s.provider.Organization()

	projects, err := s.provider.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects of %q: %w", org, err)
	}

	logger.Infof("Found %d projects in %q", len(projects), org)

	totalRepos := 0
	totalErrors := 0

	for _, project := range projects {
		if opts.ProjectFilter != "" && project.Name != opts.ProjectFilter {
			continue
		}

		repos, err := s.provider.ListRepositories(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("failed to list repositories of %q: %w", project.Name, err)
		}

		logger.Infof("%s", trail(org, project.Name, fmt.Sprintf("found %d repositories", len(repos))))

		for _, repo := range repos {
			totalRepos++
			entryFailures, err := s.processRepository(ctx, project, repo, today, opts)
			totalErrors += entryFailures
			if err != nil {
				totalErrors++
				logger.Errorf("%s", trail(org, project.Name, repo.Name, err.Error()))
			}
		}
	}

	logger.Infof("Run complete: %d repositories processed, %d failures", totalRepos, totalErrors)
	return nil
}

// processRepository is the per-repository failure boundary unit: a missing
// config file raises a tracking work item, a present one runs the update
// pipeline per entry, and any returned error is logged by the caller
// without touching other repositories. Pipeline failures are contained to
// their own entry, logged here and reported through the failure count.
func (s *Service) processRepository(
	ctx context.Context,
	project domain.Project,
	repo domain.Repository,
	today time.Time,
	opts RunOptions,
) (int, error) {
	entryFailures := 0

	content, found, err := s.provider.GetFile(ctx, project.ID, repo.ID, updateConfigPath)
	if err != nil {
		return entryFailures, fmt.Errorf("failed to fetch %s: %w", updateConfigPath, err)
	}

	if !found {
		if err := s.tickets.EnsureWorkItem(ctx, project, repo, MissingUpdateConfig, opts); err != nil {
			return entryFailures, err
		}
	} else {
		cfg, err := domain.ParseUpdateConfig([]byte(content))
		if err != nil {
			return entryFailures, err
		}

		// A policy construction failure aborts the remaining entries of
		// this repository, not other repositories. A pipeline failure is
		// contained to its own entry; the remaining entries and the
		// pipeline file check below still run.
		for _, entry := range cfg.UpdateConfigs {
			policy, err := domain.NewUpdatePolicy(entry, today)
			if err != nil {
				return entryFailures, err
			}
			if err := s.pipeline.Run(ctx, project, repo, policy, opts); err != nil {
				entryFailures++
				logger.Errorf("%s", trail(
					s.provider.Organization(), project.Name, repo.Name,
					string(policy.PackageManager), err.Error(),
				))
			}
		}
	}

	_, found, err = s.provider.GetFile(ctx, project.ID, repo.ID, pipelineConfigPath)
	if err != nil {
		return entryFailures, fmt.Errorf("failed to fetch %s: %w", pipelineConfigPath, err)
	}
	if !found {
		if err := s.tickets.EnsureWorkItem(ctx, project, repo, MissingPipelineConfig, opts); err != nil {
			return entryFailures, err
		}
	}

	return entryFailures, nil
}
