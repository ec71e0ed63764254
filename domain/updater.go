package domain

import "context"

// UnlockRequirements is the tier of version-requirement changes an update
// is allowed to make in order to unlock a newer version.
type UnlockRequirements string

const (
	// UnlockNone leaves every requirement string untouched.
	UnlockNone UnlockRequirements = "none"
	// UnlockOwn may rewrite the requirement of the dependency being updated.
	UnlockOwn UnlockRequirements = "own"
	// UnlockAll may additionally relax transitive requirements.
	UnlockAll UnlockRequirements = "all"
)

// UnlockProbeOrder is the least-disruptive-first order in which the update
// pipeline probes the unlock tiers. The first tier that permits an update
// wins; the order is a policy constant, not an incidental loop order.
var UnlockProbeOrder = []UnlockRequirements{UnlockNone, UnlockOwn, UnlockAll}

// Updater abstracts a dependency update capability for one package
// ecosystem. The orchestration core drives these operations in order but
// performs no ecosystem-specific logic itself: dependency resolution,
// manifest parsing, version computation and patch generation all live
// behind this interface.
type Updater interface {
	// Ecosystem returns the package ecosystem this capability serves.
	Ecosystem() PackageManager

	// FetchFiles retrieves the dependency files for a source and the commit
	// they were read at.
	FetchFiles(ctx context.Context, src Source) ([]DependencyFile, string, error)

	// ParseDependencies extracts the dependencies declared in the files.
	ParseDependencies(ctx context.Context, files []DependencyFile, src Source) ([]Dependency, error)

	// UpToDate reports whether a dependency is already at its latest version.
	UpToDate(ctx context.Context, dep Dependency, files []DependencyFile) (bool, error)

	// CanUpdate reports whether a dependency can be updated when the given
	// unlock tier of requirement changes is permitted.
	CanUpdate(ctx context.Context, dep Dependency, files []DependencyFile, unlock UnlockRequirements) (bool, error)

	// UpdatedDependencies computes the new dependency versions for an update
	// at the given unlock tier.
	UpdatedDependencies(ctx context.Context, dep Dependency, files []DependencyFile, unlock UnlockRequirements) ([]Dependency, error)

	// UpdatedFiles computes the file contents after applying the updated
	// dependencies.
	UpdatedFiles(ctx context.Context, deps []Dependency, files []DependencyFile) ([]DependencyFile, error)

	// CreateChangeRequest opens a pull request with the updated files.
	// A nil result with a nil error means an equivalent request is already
	// open and nothing was created.
	CreateChangeRequest(ctx context.Context, src Source, commit string, deps []Dependency, files []DependencyFile) (*ChangeRequest, error)
}
