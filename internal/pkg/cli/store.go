package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/strcase"
	"github.com/mitchellh/go-homedir"
)

const envPrefix = "AGENTCFG_"

// StoreConfig carries the record store flags shared by every binary.
type StoreConfig struct {
	Path   string `help:"Agent record store directory." default:"~/.agents"`
	Strict bool   `help:"Treat validation warnings as blocking when writing records."`
}

// storeEnvVar returns the environment variable consulted for a store flag,
// e.g. "path" -> AGENTCFG_STORE_PATH.
func storeEnvVar(flag string) string {
	return envPrefix + strcase.ToScreamingSnake("store-"+flag)
}

// ResolveRoot returns the absolute store root, honoring AGENTCFG_STORE_PATH
// over the flag value and expanding a leading "~".
func (config StoreConfig) ResolveRoot() (string, error) {
	path := config.Path
	if value, ok := os.LookupEnv(storeEnvVar("path")); ok && value != "" {
		path = value
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand store path: %w", err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve absolute store path: %w", err)
	}

	return abs, nil
}
