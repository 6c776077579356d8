// Package env loads .env files into the process environment.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/caselaw/internal/logger"
)

// FileName is the dotenv file looked up in the working and config directories.
const FileName = ".env"

// Load reads .env from the working directory and then from configDir.
// Variables already set in the environment are never overridden, so the
// first file to define a variable wins. Missing files are skipped.
func Load(configDir string) error {
	paths := []string{FileName}
	if configDir != "" {
		paths = append(paths, filepath.Join(configDir, FileName))
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
		logger.Debug("Loaded environment from %s", path)
	}
	return nil
}

// Read parses a dotenv file without touching the process environment.
func Read(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vars, nil
}
