package infra

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultUserDataDir returns the standard Edge user-data root for the
// current platform. Profiles live in subdirectories ("Default", "Profile 1",
// "Profile 2", ...) under this root.
func DefaultUserDataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "Microsoft", "Edge", "User Data")
	case "darwin":
		return ExpandHome("~/Library/Application Support/Microsoft Edge")
	default:
		return ExpandHome("~/.config/microsoft-edge")
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
