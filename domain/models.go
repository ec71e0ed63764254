package domain

// Project represents an Azure DevOps project within the organization.
type Project struct {
	ID   string
	Name string
}

// Repository represents a Git repository within a project.
type Repository struct {
	ID   string
	Name string
}

// Source identifies the location an update capability reads dependency
// files from: a directory inside one repository on the host.
type Source struct {
	Host         string // e.g. "dev.azure.com"
	Organization string
	Project      string
	Repository   string
	Directory    string
}

// Path returns the host-native repository path ("org/project/_git/repo").
func (s Source) Path() string {
	return s.Organization + "/" + s.Project + "/_git/" + s.Repository
}

// DependencyFile is an opaque file handed between the capability operations.
type DependencyFile struct {
	Path    string
	Content string
}

// Dependency is produced by an update capability. The orchestration core
// only reads Name, Version and TopLevel.
type Dependency struct {
	Name     string
	Version  string
	TopLevel bool
}

// ChangeRequest is the host's pull request entity as far as the core is
// concerned: its id and the identity of the account that created it.
type ChangeRequest struct {
	ID          int
	CreatedByID string
}

// WorkItem describes a tracking ticket raised for a repository that is
// missing required configuration.
type WorkItem struct {
	Title      string
	Tags       string
	ReproSteps string
	Priority   string
	Severity   string
}
