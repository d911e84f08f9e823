// Package testutil provides test utilities and helpers for kvboot tests.
//
// This package contains shared test infrastructure: self-signed certificate
// generation, certificate store directories, appsettings files and log
// capture.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// BaseSettings returns the base configuration used across bootstrap tests.
func BaseSettings(thumbprint string) map[string]any {
	return map[string]any{
		"KeyVaultName":          "contoso",
		"AzureADDirectoryId":    "tid-1",
		"AzureADApplicationId":  "app-1",
		"AzureADCertThumbprint": thumbprint,
	}
}

// WriteAppSettings writes settings as appsettings.yaml into a new temporary
// directory and returns the directory.
//
// Example usage:
//
//	dir := WriteAppSettings(t, map[string]any{
//	    "KeyVaultName": "contoso",
//	    "Server": map[string]any{"Address": ":0"},
//	})
func WriteAppSettings(t *testing.T, settings map[string]any) string {
	t.Helper()

	dir := t.TempDir()
	data, err := yaml.Marshal(settings)
	if err != nil {
		t.Fatalf("Failed to marshal settings: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "appsettings.yaml"), data, 0o600); err != nil {
		t.Fatalf("Failed to write appsettings.yaml: %v", err)
	}
	return dir
}
