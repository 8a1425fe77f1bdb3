//go:build integration

package integration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	lspclient "github.com/wagiedev/lsp-client-go"
)

// skipIfServerNotInstalled skips the test if the error indicates gopls is not found.
func skipIfServerNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*lspclient.ServerNotFoundError](err); ok {
		t.Skip("gopls not installed")
	}
}

const mainSource = `package main

import "fmt"

// Add returns the sum of a and b.
func Add(a, b int) int {
	return a + b
}

func main() {
	fmt.Println(Add(1, 2))
}
`

// newModule writes a small Go module and returns its directory and the URI
// of its main.go.
func newModule(t *testing.T) (string, lspclient.DocumentURI) {
	t.Helper()

	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/it\n\ngo 1.22\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(mainSource), 0o600))

	return dir, lspclient.DocumentURI("file://" + filepath.Join(dir, "main.go"))
}

func uriFor(dir string) lspclient.DocumentURI {
	return lspclient.DocumentURI("file://" + dir)
}
