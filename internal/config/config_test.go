package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/systmms/kvboot/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestParseYAMLFlattensNestedKeys(t *testing.T) {
	t.Parallel()

	values, err := parseYAML([]byte(`
KeyVaultName: contoso
KeyVault:
  TimeoutSeconds: 10
Server:
  Address: ":9000"
AllowedHosts:
  - a.example.com
  - b.example.com
Empty:
`))
	require.NoError(t, err)

	assert.Equal(t, "contoso", values["KeyVaultName"])
	assert.Equal(t, "10", values["KeyVault:TimeoutSeconds"])
	assert.Equal(t, ":9000", values["Server:Address"])
	assert.Equal(t, "a.example.com", values["AllowedHosts:0"])
	assert.Equal(t, "b.example.com", values["AllowedHosts:1"])
	v, ok := values["Empty"]
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestConfigLoadLayering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "appsettings.yaml", `
KeyVaultName: from-file
AzureADDirectoryId: tid-file
Server:
  Address: ":8080"
`)
	writeFile(t, dir, "appsettings.Development.yaml", `
AzureADDirectoryId: tid-dev
`)

	cfg := &Config{Dir: dir}
	err := cfg.LoadFrom([]string{
		"KVBOOT_ENVIRONMENT=Development",
		"Server__Address=:7000",
		"KVBOOT_KeyVaultName=from-env",
		"KeyVaultName=plain-env",
	})
	require.NoError(t, err)

	assert.Equal(t, "Development", cfg.Environment)
	assert.Equal(t, "from-env", cfg.Base.Value("KeyVaultName"))
	assert.Equal(t, "tid-dev", cfg.Base.Value("AzureADDirectoryId"))
	assert.Equal(t, ":7000", cfg.Base.Value("Server:Address"))
}

func TestConfigLoadWithoutFiles(t *testing.T) {
	t.Parallel()

	cfg := &Config{Dir: t.TempDir()}
	require.NoError(t, cfg.LoadFrom([]string{"KeyVaultName=contoso"}))

	assert.Equal(t, DefaultEnvironment, cfg.Environment)
	assert.Equal(t, "contoso", cfg.Base.Value("KeyVaultName"))
}

func TestConfigLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "appsettings.yaml", "KeyVaultName: [unterminated")

	cfg := &Config{Dir: dir}
	err := cfg.LoadFrom(nil)
	require.Error(t, err)

	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "invalid YAML")
}

func TestBuilderRequiredFileMissing(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().
		AddYAMLFile(filepath.Join(t.TempDir(), "missing.yaml"), false).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
}
