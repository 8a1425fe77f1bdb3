package lspclient

import "github.com/wagiedev/lsp-client-go/internal/config"

// Transport defines the interface for language server communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods (e.g., a socket to a running server).
//
// The default implementation spawns Options.Command as a subprocess.
// Custom transports can be injected with WithTransport.
type Transport = config.Transport
