package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSecrets writes Docker-style secret files into a temporary directory
// and points SECRETS_DIR at it for the duration of the test.
func WriteSecrets(t *testing.T, secrets map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, value := range secrets {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0o600); err != nil {
			t.Fatalf("failed to write secret %s: %v", name, err)
		}
	}
	t.Setenv("SECRETS_DIR", dir)
	return dir
}
