// Package test provides hand-written test doubles (spies and dummies) for
// the domain interfaces, shared by the package tests.
package test

import (
	"context"

	"github.com/upkeeper/upkeeper/domain"
)

// ---------------------------------------------------------------------------
// SpyProvider — records calls and returns scripted results
// ---------------------------------------------------------------------------

// GetFileCall records one file lookup.
type GetFileCall struct {
	ProjectID string
	RepoID    string
	Path      string
}

// WorkItemCreation records one work item creation.
type WorkItemCreation struct {
	ProjectID string
	Item      domain.WorkItem
}

// AutomergeCall records one auto-complete or approval call.
type AutomergeCall struct {
	ProjectID string
	RepoID    string
	CR        domain.ChangeRequest
}

// SpyProvider is a scriptable domain.Provider that records every call.
type SpyProvider struct {
	Org      string
	HostName string

	Projects     []domain.Project
	ProjectsErr  error
	Repositories map[string][]domain.Repository // keyed by project id
	ReposErr     error

	// Files maps "repoID:path" to content; absent keys report found=false.
	Files      map[string]string
	GetFileErr error
	WorkItems  map[string]int // existing work item count per title
	QueryErr   error
	CreateErr  error
	AutoErr    error
	ApproveErr error

	GetFileCalls     []GetFileCall
	QueriedTitles    []string
	CreatedWorkItems []WorkItemCreation
	AutoCompleted    []AutomergeCall
	Approved         []AutomergeCall
}

var _ domain.Provider = (*SpyProvider)(nil)

func (p *SpyProvider) Name() string { return "spy" }

func (p *SpyProvider) Organization() string { return p.Org }

func (p *SpyProvider) Host() string {
	if p.HostName == "" {
		return "dev.azure.com"
	}
	return p.HostName
}

func (p *SpyProvider) ListProjects(_ context.Context) ([]domain.Project, error) {
	return p.Projects, p.ProjectsErr
}

func (p *SpyProvider) ListRepositories(_ context.Context, projectID string) ([]domain.Repository, error) {
	if p.ReposErr != nil {
		return nil, p.ReposErr
	}
	return p.Repositories[projectID], nil
}

func (p *SpyProvider) GetFile(_ context.Context, projectID, repoID, path string) (string, bool, error) {
	p.GetFileCalls = append(p.GetFileCalls, GetFileCall{
		ProjectID: projectID,
		RepoID:    repoID,
		Path:      path,
	})
	if p.GetFileErr != nil {
		return "", false, p.GetFileErr
	}
	content, ok := p.Files[repoID+":"+path]
	return content, ok, nil
}

func (p *SpyProvider) CountWorkItemsByTitle(_ context.Context, _, title string) (int, error) {
	p.QueriedTitles = append(p.QueriedTitles, title)
	if p.QueryErr != nil {
		return 0, p.QueryErr
	}
	return p.WorkItems[title], nil
}

func (p *SpyProvider) CreateWorkItem(_ context.Context, projectID string, item domain.WorkItem) error {
	p.CreatedWorkItems = append(p.CreatedWorkItems, WorkItemCreation{
		ProjectID: projectID,
		Item:      item,
	})
	return p.CreateErr
}

func (p *SpyProvider) SetAutoComplete(_ context.Context, projectID, repoID string, cr domain.ChangeRequest) error {
	p.AutoCompleted = append(p.AutoCompleted, AutomergeCall{
		ProjectID: projectID,
		RepoID:    repoID,
		CR:        cr,
	})
	return p.AutoErr
}

func (p *SpyProvider) ApproveChangeRequest(_ context.Context, projectID, repoID string, cr domain.ChangeRequest) error {
	p.Approved = append(p.Approved, AutomergeCall{
		ProjectID: projectID,
		RepoID:    repoID,
		CR:        cr,
	})
	return p.ApproveErr
}

// ---------------------------------------------------------------------------
// SpyUpdater — scriptable update capability
// ---------------------------------------------------------------------------

// ChangeRequestCall records one change request creation attempt.
type ChangeRequestCall struct {
	Source domain.Source
	Commit string
	Deps   []domain.Dependency
	Files  []domain.DependencyFile
}

// SpyUpdater is a scriptable domain.Updater that records every call.
type SpyUpdater struct {
	EcosystemValue domain.PackageManager

	Files    []domain.DependencyFile
	Commit   string
	FetchErr error

	Deps     []domain.Dependency
	ParseErr error

	UpToDateByName map[string]bool
	UpToDateErr    error

	// CanUpdateByTier scripts the unlock probing; unset tiers report false.
	CanUpdateByTier map[domain.UnlockRequirements]bool
	CanUpdateErr    error

	UpdatedDeps        []domain.Dependency
	UpdatedDepsErr     error
	UpdatedFilesResult []domain.DependencyFile
	UpdatedFilesErr    error

	// CreatedCR is returned by CreateChangeRequest; nil means an equivalent
	// request already exists.
	CreatedCR *domain.ChangeRequest
	CreateErr error

	FetchedSources []domain.Source
	UpToDateChecks []string
	ProbedTiers    []domain.UnlockRequirements
	CreateCalls    []ChangeRequestCall
}

var _ domain.Updater = (*SpyUpdater)(nil)

func (u *SpyUpdater) Ecosystem() domain.PackageManager {
	return u.EcosystemValue
}

func (u *SpyUpdater) FetchFiles(_ context.Context, src domain.Source) ([]domain.DependencyFile, string, error) {
	u.FetchedSources = append(u.FetchedSources, src)
	return u.Files, u.Commit, u.FetchErr
}

func (u *SpyUpdater) ParseDependencies(_ context.Context, _ []domain.DependencyFile, _ domain.Source) ([]domain.Dependency, error) {
	return u.Deps, u.ParseErr
}

func (u *SpyUpdater) UpToDate(_ context.Context, dep domain.Dependency, _ []domain.DependencyFile) (bool, error) {
	u.UpToDateChecks = append(u.UpToDateChecks, dep.Name)
	return u.UpToDateByName[dep.Name], u.UpToDateErr
}

func (u *SpyUpdater) CanUpdate(_ context.Context, _ domain.Dependency, _ []domain.DependencyFile, unlock domain.UnlockRequirements) (bool, error) {
	u.ProbedTiers = append(u.ProbedTiers, unlock)
	return u.CanUpdateByTier[unlock], u.CanUpdateErr
}

func (u *SpyUpdater) UpdatedDependencies(_ context.Context, _ domain.Dependency, _ []domain.DependencyFile, _ domain.UnlockRequirements) ([]domain.Dependency, error) {
	return u.UpdatedDeps, u.UpdatedDepsErr
}

func (u *SpyUpdater) UpdatedFiles(_ context.Context, _ []domain.Dependency, _ []domain.DependencyFile) ([]domain.DependencyFile, error) {
	return u.UpdatedFilesResult, u.UpdatedFilesErr
}

func (u *SpyUpdater) CreateChangeRequest(_ context.Context, src domain.Source, commit string, deps []domain.Dependency, files []domain.DependencyFile) (*domain.ChangeRequest, error) {
	u.CreateCalls = append(u.CreateCalls, ChangeRequestCall{
		Source: src,
		Commit: commit,
		Deps:   deps,
		Files:  files,
	})
	if u.CreateErr != nil {
		return nil, u.CreateErr
	}
	return u.CreatedCR, nil
}

// ---------------------------------------------------------------------------
// DummyUpdater — satisfies the interface but does nothing
// ---------------------------------------------------------------------------

// DummyUpdater is a no-op implementation of domain.Updater.
// Use it only for interface compliance tests or as a placeholder.
type DummyUpdater struct {
	EcosystemValue domain.PackageManager
}

var _ domain.Updater = (*DummyUpdater)(nil)

func (d *DummyUpdater) Ecosystem() domain.PackageManager { return d.EcosystemValue }

func (d *DummyUpdater) FetchFiles(_ context.Context, _ domain.Source) ([]domain.DependencyFile, string, error) {
	return nil, "", nil
}

func (d *DummyUpdater) ParseDependencies(_ context.Context, _ []domain.DependencyFile, _ domain.Source) ([]domain.Dependency, error) {
	return nil, nil
}

func (d *DummyUpdater) UpToDate(_ context.Context, _ domain.Dependency, _ []domain.DependencyFile) (bool, error) {
	return false, nil
}

func (d *DummyUpdater) CanUpdate(_ context.Context, _ domain.Dependency, _ []domain.DependencyFile, _ domain.UnlockRequirements) (bool, error) {
	return false, nil
}

func (d *DummyUpdater) UpdatedDependencies(_ context.Context, _ domain.Dependency, _ []domain.DependencyFile, _ domain.UnlockRequirements) ([]domain.Dependency, error) {
	return nil, nil
}

func (d *DummyUpdater) UpdatedFiles(_ context.Context, _ []domain.Dependency, _ []domain.DependencyFile) ([]domain.DependencyFile, error) {
	return nil, nil
}

func (d *DummyUpdater) CreateChangeRequest(_ context.Context, _ domain.Source, _ string, _ []domain.Dependency, _ []domain.DependencyFile) (*domain.ChangeRequest, error) {
	return nil, nil //nolint:nilnil // dummy no-op
}
