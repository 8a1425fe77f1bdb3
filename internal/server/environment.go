package server

import (
	"maps"
	"os"
	"slices"

	"github.com/wagiedev/lsp-client-go/internal/config"
)

// ClientEnv marks processes started by this client.
const ClientEnv = "LSP_CLIENT_GO=1"

// BuildEnvironment constructs the environment variables for the server process.
//
// Later entries win: os.Environ, then Options.EnvFile, then Options.Env.
// os/exec keeps the last value for a duplicated key.
func BuildEnvironment(options *config.Options) ([]string, error) {
	env := os.Environ()
	env = append(env, ClientEnv)

	if options == nil {
		return env, nil
	}

	if options.EnvFile != "" {
		fileEnv, err := config.LoadEnvFile(options.EnvFile)
		if err != nil {
			return nil, err
		}

		env = appendSorted(env, fileEnv)
	}

	return appendSorted(env, options.Env), nil
}

func appendSorted(env []string, vars map[string]string) []string {
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		env = append(env, key+"="+vars[key])
	}

	return env
}
