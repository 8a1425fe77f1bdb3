package server

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wagiedev/lsp-client-go/internal/config"
	"github.com/wagiedev/lsp-client-go/internal/errors"
)

const (
	// VersionCheckTimeout is the timeout for the server version command.
	VersionCheckTimeout = 2 * time.Second

	// SkipVersionCheckEnv disables version validation when set to any value.
	SkipVersionCheckEnv = "LSP_CLIENT_SKIP_VERSION_CHECK"
)

var versionPattern = regexp.MustCompile(`([0-9]+\.[0-9]+\.[0-9]+)`)

// Config holds configuration for server discovery.
type Config struct {
	// Command is the server name ("gopls") or a path to it.
	Command string

	// VersionArgs are the arguments that make the server print its version,
	// e.g. []string{"version"}. If empty, no version check is done.
	VersionArgs []string

	// MinimumVersion is the lowest version that doesn't produce a warning.
	MinimumVersion string

	// SkipVersionCheck skips version validation during discovery.
	SkipVersionCheck bool

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// ConfigFromOptions builds the discovery configuration for options.
func ConfigFromOptions(log *slog.Logger, options *config.Options) *Config {
	return &Config{
		Command:          options.Command,
		VersionArgs:      options.VersionArgs,
		MinimumVersion:   options.MinimumVersion,
		SkipVersionCheck: options.SkipVersionCheck,
		Logger:           log,
	}
}

// Discoverer locates and validates the language server binary.
type Discoverer interface {
	// Discover locates the server binary and checks its version.
	// Returns the absolute path to the binary or an error.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new server discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &discoverer{
		cfg: cfg,
		log: log.With("component", "discovery"),
	}
}

// Discover locates the server binary and checks its version.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	d.log.Debug("Discovering language server binary", "command", d.cfg.Command)

	path, err := d.findServer()
	if err != nil {
		d.log.Error("Failed to find language server", "error", err)

		return "", err
	}

	d.log.Debug("Found language server binary", "path", path)

	d.checkVersion(ctx, path)

	return path, nil
}

// findServer locates the server binary.
func (d *discoverer) findServer() (string, error) {
	command := d.cfg.Command
	if command == "" {
		return "", &errors.ServerNotFoundError{}
	}

	// A command with a separator is an explicit path; use it and only it.
	if strings.ContainsRune(command, filepath.Separator) {
		d.log.Debug("Using explicit server path", "path", command)

		if info, err := os.Stat(command); err == nil && !info.IsDir() {
			return command, nil
		}

		return "", &errors.ServerNotFoundError{Command: command, SearchedPaths: []string{command}}
	}

	searchedPaths := make([]string, 0, 5)

	d.log.Debug("Searching for server in PATH", "command", command)

	if path, err := exec.LookPath(command); err == nil {
		d.log.Debug("Found server in PATH", "path", path)

		return path, nil
	}

	searchedPaths = append(searchedPaths, "$PATH")

	for _, path := range commonPaths(command) {
		searchedPaths = append(searchedPaths, path)
		d.log.Debug("Checking common path", "path", path)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			d.log.Debug("Found server at common path", "path", path)

			return path, nil
		}
	}

	d.log.Warn("Language server not found in any searched paths", "searched_paths", searchedPaths)

	return "", &errors.ServerNotFoundError{Command: command, SearchedPaths: searchedPaths}
}

func commonPaths(command string) []string {
	paths := make([]string, 0, 5)

	if gobin := os.Getenv("GOBIN"); gobin != "" {
		paths = append(paths, filepath.Join(gobin, command))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, "go", "bin", command),
			filepath.Join(homeDir, ".local", "bin", command),
		)
	}

	return append(paths,
		filepath.Join("/usr/local/bin", command),
		filepath.Join("/usr/bin", command),
	)
}

// checkVersion logs a warning if the server is older than MinimumVersion.
// Errors are silently ignored.
func (d *discoverer) checkVersion(ctx context.Context, path string) {
	if len(d.cfg.VersionArgs) == 0 || d.cfg.MinimumVersion == "" {
		return
	}

	if d.cfg.SkipVersionCheck {
		d.log.Debug("Skipping server version check (configured)")

		return
	}

	if os.Getenv(SkipVersionCheckEnv) != "" {
		d.log.Debug("Skipping server version check", "env", SkipVersionCheckEnv)

		return
	}

	ctx, cancel := context.WithTimeout(ctx, VersionCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, d.cfg.VersionArgs...).Output()
	if err != nil {
		d.log.Debug("Server version check failed", "error", err)

		return
	}

	version, ok := parseVersion(string(output))
	if !ok {
		d.log.Debug("Could not parse server version", "output", strings.TrimSpace(string(output)))

		return
	}

	if compareVersions(version, d.cfg.MinimumVersion) < 0 {
		d.log.Warn("Language server version is older than supported",
			"version", version,
			"minimum_required", d.cfg.MinimumVersion,
		)

		return
	}

	d.log.Debug("Server version check passed", "version", version, "minimum", d.cfg.MinimumVersion)
}

// parseVersion extracts the first X.Y.Z from version output such as
// "golang.org/x/tools/gopls v0.16.2".
func parseVersion(output string) (string, bool) {
	match := versionPattern.FindStringSubmatch(output)
	if match == nil {
		return "", false
	}

	return match[1], true
}

// compareVersions compares two semantic versions.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
func compareVersions(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	for i := range 3 {
		aNum := 0
		bNum := 0

		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}

		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		if aNum < bNum {
			return -1
		}

		if aNum > bNum {
			return 1
		}
	}

	return 0
}
