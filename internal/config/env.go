package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultInitializeTimeout is used when no initialize timeout is configured.
	DefaultInitializeTimeout = 60 * time.Second

	// InitializeTimeoutEnv overrides the default initialize timeout, in seconds.
	InitializeTimeoutEnv = "LSP_CLIENT_INITIALIZE_TIMEOUT"
)

// LoadEnvFile reads a dotenv file without touching the current process
// environment.
func LoadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("load env file %s: %w", path, err)
	}

	return env, nil
}

// GetInitializeTimeout returns the initialize timeout from options, env var, or default.
func (o *Options) GetInitializeTimeout() time.Duration {
	if o != nil && o.InitializeTimeout != nil {
		return *o.InitializeTimeout
	}

	if timeoutStr := os.Getenv(InitializeTimeoutEnv); timeoutStr != "" {
		if timeoutSec, err := strconv.Atoi(timeoutStr); err == nil && timeoutSec > 0 {
			return time.Duration(timeoutSec) * time.Second
		}
	}

	return DefaultInitializeTimeout
}
