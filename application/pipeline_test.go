package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upkeeper/upkeeper/application"
	"github.com/upkeeper/upkeeper/domain"
	updaterPkg "github.com/upkeeper/upkeeper/infrastructure/updater"
	testdoubles "github.com/upkeeper/upkeeper/test"
)

// --- helpers ---

var (
	testProject = domain.Project{ID: "proj-1", Name: "Platform"}
	testRepo    = domain.Repository{ID: "repo-1", Name: "billing"}
)

func buildPipeline(
	prov *testdoubles.SpyProvider,
	updaters ...domain.Updater,
) *application.Pipeline {
	reg := updaterPkg.NewRegistry()
	for _, u := range updaters {
		reg.Register(u)
	}
	return application.NewPipeline(prov, reg)
}

func jsPolicy() *domain.UpdatePolicy {
	return &domain.UpdatePolicy{
		PackageManager: domain.NpmAndYarn,
		Directory:      "/",
		RunsToday:      true,
	}
}

func scriptedUpdater(deps ...domain.Dependency) *testdoubles.SpyUpdater {
	return &testdoubles.SpyUpdater{
		EcosystemValue: domain.NpmAndYarn,
		Files:          []domain.DependencyFile{{Path: "package.json", Content: "{}"}},
		Commit:         "abc123",
		Deps:           deps,
		CanUpdateByTier: map[domain.UnlockRequirements]bool{
			domain.UnlockNone: true,
		},
		UpdatedDeps: []domain.Dependency{{Name: "dep", Version: "2.0.0", TopLevel: true}},
		CreatedCR:   &domain.ChangeRequest{ID: 7, CreatedByID: "bot-id"},
	}
}

// --- tests ---

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	t.Run("should do nothing when the policy is not scheduled today", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "dep", Version: "1.0.0", TopLevel: true})
		pipeline := buildPipeline(prov, upd)

		policy := jsPolicy()
		policy.RunsToday = false

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, policy, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, upd.FetchedSources, "no files should be fetched on a skipped day")
	})

	t.Run("should fail when no capability serves the ecosystem", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		pipeline := buildPipeline(prov) // empty registry

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, jsPolicy(), application.RunOptions{})

		// then
		require.ErrorIs(t, err, updaterPkg.ErrNoUpdater)
	})

	t.Run("should pass the policy directory and host through the source", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater()
		pipeline := buildPipeline(prov, upd)

		policy := jsPolicy()
		policy.Directory = "/web"

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, policy, application.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, upd.FetchedSources, 1)
		src := upd.FetchedSources[0]
		assert.Equal(t, "dev.azure.com", src.Host)
		assert.Equal(t, "acme", src.Organization)
		assert.Equal(t, "Platform", src.Project)
		assert.Equal(t, "billing", src.Repository)
		assert.Equal(t, "/web", src.Directory)
		assert.Equal(t, "acme/Platform/_git/billing", src.Path())
	})

	t.Run("should skip ignored dependencies before any update check", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "lodash", Version: "4.0.0", TopLevel: true})
		pipeline := buildPipeline(prov, upd)

		policy := jsPolicy()
		policy.IgnoreNames = []string{"lo*"}

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, policy, application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, upd.UpToDateChecks, "ignored dependency must be skipped before the update check")
		assert.Empty(t, upd.CreateCalls)
	})

	t.Run("should skip dependencies that are not top level", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "transitive", Version: "1.0.0", TopLevel: false})
		pipeline := buildPipeline(prov, upd)

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, jsPolicy(), application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, upd.UpToDateChecks)
	})

	t.Run("should not open a change request for an up to date dependency", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "rack", Version: "3.0.0", TopLevel: true})
		upd.UpToDateByName = map[string]bool{"rack": true}
		pipeline := buildPipeline(prov, upd)

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, jsPolicy(), application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"rack"}, upd.UpToDateChecks)
		assert.Empty(t, upd.ProbedTiers, "an up to date dependency must not be probed")
		assert.Empty(t, upd.CreateCalls)
	})

	t.Run("should probe unlock tiers least disruptive first", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "dep", Version: "1.0.0", TopLevel: true})
		upd.CanUpdateByTier = map[domain.UnlockRequirements]bool{
			// both own and all would permit the update; own must win
			domain.UnlockOwn: true,
			domain.UnlockAll: true,
		}
		pipeline := buildPipeline(prov, upd)

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, jsPolicy(), application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(
			t,
			[]domain.UnlockRequirements{domain.UnlockNone, domain.UnlockOwn},
			upd.ProbedTiers,
			"probing must stop at the first permitting tier",
		)
		require.Len(t, upd.CreateCalls, 1)
	})

	t.Run("should skip a dependency no unlock tier can update", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "stuck", Version: "1.0.0", TopLevel: true})
		upd.CanUpdateByTier = nil
		pipeline := buildPipeline(prov, upd)

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, jsPolicy(), application.RunOptions{})

		// then
		require.NoError(t, err)
		assert.Equal(
			t,
			[]domain.UnlockRequirements{domain.UnlockNone, domain.UnlockOwn, domain.UnlockAll},
			upd.ProbedTiers,
			"every tier must have been probed before giving up",
		)
		assert.Empty(t, upd.CreateCalls)
	})

	t.Run("should treat a nil change request as already existing", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "dep", Version: "1.0.0", TopLevel: true})
		upd.CreatedCR = nil

		pipeline := buildPipeline(prov, upd)

		policy := jsPolicy()
		policy.AutomergeNames = []string{"dep"}

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, policy, application.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, upd.CreateCalls, 1)
		assert.Empty(t, prov.AutoCompleted, "no automerge on a pre-existing change request")
		assert.Empty(t, prov.Approved)
	})

	t.Run("should auto-complete and approve change requests matching the automerge rules", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "eslint-plugin-react", Version: "7.0.0", TopLevel: true})
		pipeline := buildPipeline(prov, upd)

		policy := jsPolicy()
		policy.AutomergeNames = []string{"eslint*"}

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, policy, application.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, prov.AutoCompleted, 1)
		require.Len(t, prov.Approved, 1)
		assert.Equal(t, 7, prov.AutoCompleted[0].CR.ID)
		assert.Equal(t, "bot-id", prov.AutoCompleted[0].CR.CreatedByID)
		assert.Equal(t, "bot-id", prov.Approved[0].CR.CreatedByID)
		assert.Equal(t, "proj-1", prov.Approved[0].ProjectID)
		assert.Equal(t, "repo-1", prov.Approved[0].RepoID)
	})

	t.Run("should leave non-matching change requests for manual review", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "left-pad", Version: "1.0.0", TopLevel: true})
		pipeline := buildPipeline(prov, upd)

		policy := jsPolicy()
		policy.AutomergeNames = []string{"eslint*"}

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, policy, application.RunOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, upd.CreateCalls, 1)
		assert.Empty(t, prov.AutoCompleted)
		assert.Empty(t, prov.Approved)
	})

	t.Run("should not create change requests in dry run mode", func(t *testing.T) {
		t.Parallel()

		// given
		prov := &testdoubles.SpyProvider{Org: "acme"}
		upd := scriptedUpdater(domain.Dependency{Name: "dep", Version: "1.0.0", TopLevel: true})
		pipeline := buildPipeline(prov, upd)

		// when
		err := pipeline.Run(context.Background(), testProject, testRepo, jsPolicy(), application.RunOptions{DryRun: true})

		// then
		require.NoError(t, err)
		assert.Empty(t, upd.CreateCalls)
		assert.Empty(t, prov.AutoCompleted)
	})
}
