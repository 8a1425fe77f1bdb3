// Package server locates the language server binary and builds the
// environment it runs in.
//
// # Server Discovery
//
// The Discoverer interface locates the server binary:
//
//	discoverer := server.NewDiscoverer(&server.Config{
//	    Command:      "gopls",
//	    VersionArgs:  []string{"version"},
//	    MinimumVersion: "0.15.0",
//	    Logger:       slog.Default(),
//	})
//	path, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Command itself, when it contains a path separator
//  2. System PATH
//  3. Common installation directories (~/go/bin, ~/.local/bin, /usr/local/bin, /usr/bin)
//
// # Version Validation
//
// When VersionArgs is set, the server is run once with those arguments and the
// first X.Y.Z in its output is compared against MinimumVersion. A warning is
// logged if the version is below minimum. Version checking can be skipped via
// Config.SkipVersionCheck or the LSP_CLIENT_SKIP_VERSION_CHECK environment
// variable.
//
// # Environment
//
//	env, err := server.BuildEnvironment(options)
package server
