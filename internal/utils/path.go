package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppName names the config directory.
const AppName = "lzwseg"

// PlatformConfigDir returns the conventional config directory for the platform.
func PlatformConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin", "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	default:
		return filepath.Join(homeDir, "."+AppName)
	}
}

// VocabSearchDirs lists the directories a relative vocabulary path is
// resolved against, in order: the working directory, the config
// directory's vocab/ folder and the executable's directory.
func VocabSearchDirs(configDir string) []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if configDir != "" {
		dirs = append(dirs, filepath.Join(configDir, "vocab"))
	}
	if execDir, err := GetExecutableDir(); err == nil {
		dirs = append(dirs, execDir)
	}
	return dirs
}

// ResolveVocabPath finds a vocabulary file. Absolute paths are returned as is.
// When nothing matches the path is returned unchanged so the caller reports
// the original name.
func ResolveVocabPath(path string, searchDirs []string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if found, err := FindFileInPaths(path, searchDirs); err == nil {
		log.Debugf("Resolved vocabulary %s to %s", path, found)
		return found
	}
	log.Debugf("Vocabulary %s not found in %v", path, searchDirs)
	return path
}

// FindFileInPaths searches for a file in multiple possible locations
func FindFileInPaths(filename string, searchPaths []string) (string, error) {
	for _, searchPath := range searchPaths {
		fullPath := filepath.Join(searchPath, filename)
		if stat, err := os.Stat(fullPath); err == nil && !stat.IsDir() {
			return fullPath, nil
		}
	}
	return "", os.ErrNotExist
}
