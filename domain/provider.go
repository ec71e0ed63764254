package domain

import "context"

// Provider abstracts the source-control host the orchestrator walks.
// Each implementation owns authentication, enumeration, file access,
// work item tracking and pull request automation for its platform.
type Provider interface {
	// Name returns the provider identifier (e.g. "azuredevops").
	Name() string

	// Organization returns the organization the provider is scoped to.
	Organization() string

	// Host returns the host name updates are sourced from (e.g. "dev.azure.com").
	Host() string

	// ListProjects enumerates all projects in the organization.
	ListProjects(ctx context.Context) ([]Project, error)

	// ListRepositories enumerates all repositories in a project.
	ListRepositories(ctx context.Context, projectID string) ([]Repository, error)

	// GetFile reads a file from a repository's default branch. A missing
	// path is an expected outcome reported as found=false, not an error.
	GetFile(ctx context.Context, projectID, repoID, path string) (content string, found bool, err error)

	// CountWorkItemsByTitle returns how many work items carry exactly the
	// given title.
	CountWorkItemsByTitle(ctx context.Context, projectID, title string) (int, error)

	// CreateWorkItem opens a new tracking work item in a project.
	CreateWorkItem(ctx context.Context, projectID string, item WorkItem) error

	// SetAutoComplete marks a change request to complete automatically once
	// its policies pass, deleting the source branch, attributed to the
	// request's creator.
	SetAutoComplete(ctx context.Context, projectID, repoID string, cr ChangeRequest) error

	// ApproveChangeRequest casts an approving vote on a change request as
	// the request's creator.
	ApproveChangeRequest(ctx context.Context, projectID, repoID string, cr ChangeRequest) error
}
