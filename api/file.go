// Package api contains helpers shared by the versioned document types.
package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/charon/pkg/yaml"
)

// AppName names the configuration directory.
const AppName = "charon"

// GetConfigPath returns the path of filename inside the user's charon
// configuration directory: $XDG_CONFIG_HOME/charon, then ~/.config/charon,
// then a temporary directory.
func GetConfigPath(filename string) string {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, AppName, filename)
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, ".config", AppName, filename)
	}

	tmpPath := filepath.Join(os.TempDir(), AppName, filename)

	slog.Warn("could not determine user config directory, using temp path",
		slog.String("path", tmpPath),
		slog.Any("err", err),
	)

	return tmpPath
}

// ReadFile reads a regular file.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s: path is a directory", path)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	b, err := yaml.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b, nil
}

// WriteDefaultFile writes defaultData to path unless a file is already
// there. With force, an existing file is renamed to a timestamped backup
// first.
func WriteDefaultFile(path string, defaultData []byte, force bool, kind string) error {
	logger := slog.With(slog.String("type", kind), slog.String("path", path))

	exists := false

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		exists = true
	case err == nil && info.IsDir():
		return fmt.Errorf("%s: path is a directory", path)
	case err == nil:
		return fmt.Errorf("%s: unknown file state", path)
	}

	if exists && !force {
		logger.Debug("file already exists, skipping write")

		return nil
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists {
		backupPath := fmt.Sprintf("%s.%d.old", path, time.Now().UnixNano())
		logger.Info("backing up existing file", slog.String("backup", backupPath))

		err = os.Rename(path, backupPath)
		if err != nil {
			return fmt.Errorf("back up existing %s file: %w", kind, err)
		}
	}

	logger.Info("write default file")

	err = os.WriteFile(path, defaultData, 0o600)
	if err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}
