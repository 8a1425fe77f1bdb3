package lspclient

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// lockedBuffer is a bytes.Buffer safe for the client's concurrent loggers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// TestClient_VersionCheck tests that Start runs the configured version
// command and warns about an outdated server.
func TestClient_VersionCheck(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("Test requires /bin/sh")
	}

	t.Setenv("LSP_CLIENT_SKIP_VERSION_CHECK", "")

	// Prints a version when asked, otherwise reads stdin and never answers.
	serverPath := filepath.Join(t.TempDir(), "gopls")
	script := "#!/bin/sh\nif [ \"$1\" = version ]; then echo golang.org/x/tools/gopls v0.9.1; exit 0; fi\nexec cat >/dev/null\n"
	require.NoError(t, os.WriteFile(serverPath, []byte(script), 0o755))

	tests := []struct {
		name   string
		opts   []Option
		warned bool
	}{
		{name: "outdated", opts: []Option{WithVersionCheck("0.15.0", "version")}, warned: true},
		{name: "current", opts: []Option{WithVersionCheck("0.9.0", "version")}},
		{name: "skipped", opts: []Option{WithVersionCheck("0.15.0", "version"), WithSkipVersionCheck()}},
		{name: "not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs lockedBuffer

			client := NewClient()
			defer client.Close()

			opts := append([]Option{
				WithCommand(serverPath),
				WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
				WithInitializeTimeout(100 * time.Millisecond),
			}, tt.opts...)

			// The script never answers initialize.
			err := client.Start(context.Background(), opts...)
			require.ErrorIs(t, err, ErrRequestTimeout)

			if tt.warned {
				require.Contains(t, logs.String(), "Language server version is older than supported")
				require.Contains(t, logs.String(), "minimum_required=0.15.0")
			} else {
				require.NotContains(t, logs.String(), "older than supported")
			}
		})
	}
}
