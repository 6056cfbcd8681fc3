package storage

import (
	"os"
	"path/filepath"
)

const appDirName = ".solportal"

// DefaultDataDir resolves the daemon's private data directory. Falls back to
// a relative directory when the home dir cannot be determined (containers
// with no passwd entry).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return appDirName
	}
	return filepath.Join(home, appDirName)
}

func DefaultKeystorePath() string {
	return filepath.Join(DefaultDataDir(), "keystore.enc")
}

func DefaultBaseAccountKeyPath() string {
	return filepath.Join(DefaultDataDir(), "base-account.json")
}
