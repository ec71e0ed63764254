package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upkeeper/upkeeper/config"
)

//nolint:tparallel // some subtests use t.Setenv which is incompatible with t.Parallel on parent
func TestResolveToken(t *testing.T) {
	t.Run("should return empty string for empty input", func(t *testing.T) {
		t.Parallel()

		// given
		raw := ""

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Empty(t, result)
	})

	t.Run("should return inline token unchanged", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "pat-abc123xyz"

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Equal(t, "pat-abc123xyz", result)
	})

	t.Run("should expand environment variable reference", func(t *testing.T) {
		// NOTE: cannot use t.Parallel() with t.Setenv()

		// given
		t.Setenv("TEST_TOKEN_RESOLVE", "my-secret-token")
		raw := "${TEST_TOKEN_RESOLVE}"

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Equal(t, "my-secret-token", result)
	})

	t.Run("should return empty for unset env var", func(t *testing.T) {
		t.Parallel()

		// given
		raw := "${DEFINITELY_NOT_SET_VAR_12345}"

		// when
		result := config.ResolveToken(raw)

		// then
		assert.Empty(t, result)
	})

	t.Run("should read the token from a file path", func(t *testing.T) {
		t.Parallel()

		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0o600))

		// when
		result := config.ResolveToken(tokenFile)

		// then
		assert.Equal(t, "file-token", result)
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "upkeeper.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("should load a complete configuration", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
organization: acme
token: my-pat
endpoint: https://azure.example.com
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "acme", cfg.Organization)
		assert.Equal(t, "my-pat", cfg.Token)
		assert.Equal(t, "https://azure.example.com", cfg.Endpoint)
	})

	t.Run("should default the endpoint", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "organization: acme\ntoken: my-pat\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, config.DefaultEndpoint, cfg.Endpoint)
	})

	t.Run("should fail without an organization", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "token: my-pat\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "organization")
		assert.Nil(t, cfg)
	})

	t.Run("should fail without a token", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "organization: acme\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token")
		assert.Nil(t, cfg)
	})

	t.Run("should fail on an unreadable file", func(t *testing.T) {
		t.Parallel()

		// when
		cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("should fail on malformed YAML", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "organization: [broken\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.Error(t, err)
		assert.Nil(t, cfg)
	})
}
