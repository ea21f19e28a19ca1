package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// UpdateEnvFile merges updates into the .env file at path, creating it if
// needed. Existing keys not in updates are kept.
func UpdateEnvFile(path string, updates map[string]string) error {
	env, err := readEnv(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		env = map[string]string{}
	}
	for k, v := range updates {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}

func readEnv(path string) (map[string]string, error) {
	return godotenv.Read(path)
}
