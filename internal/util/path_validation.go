package util

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ValidateFolderPath checks that a source's save path is usable: it
// must not escape the library, and it must either already be a
// writable directory or be creatable. Relative paths are resolved
// against basePath.
func ValidateFolderPath(folderPath, basePath string) error {
	if folderPath == "" {
		return fmt.Errorf("folder path cannot be empty")
	}
	if strings.Contains(folderPath, "..") {
		return fmt.Errorf("folder path contains invalid directory traversal")
	}

	full := filepath.Clean(folderPath)
	if !filepath.IsAbs(full) {
		full = filepath.Join(basePath, full)
	}
	return validateDirectory(full)
}

func validateDirectory(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", path)
		}
		if err := checkWritable(path); err != nil {
			return fmt.Errorf("no write permission for existing directory: %w", err)
		}
		return nil
	case os.IsNotExist(err):
		return checkCreatable(path)
	default:
		return fmt.Errorf("cannot access path: %w", err)
	}
}

// checkWritable probes a directory by creating and removing a marker
// file; stat-based permission checks miss read-only mounts.
func checkWritable(dir string) error {
	marker := filepath.Join(dir, ".bilisync-write-check")
	f, err := os.Create(marker)
	if err != nil {
		return err
	}
	f.Close()
	os.Remove(marker)
	return nil
}

// checkCreatable verifies the directory could be created, then removes
// it again so validation leaves no trace.
func checkCreatable(path string) error {
	parent := filepath.Dir(path)
	if info, err := os.Stat(parent); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access parent directory: %w", err)
		}
		if err := os.MkdirAll(parent, 0755); err != nil {
			return fmt.Errorf("cannot create parent directory: %w", err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("parent path exists but is not a directory: %s", parent)
	}

	if err := checkWritable(parent); err != nil {
		return fmt.Errorf("no write permission for parent directory: %w", err)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	os.RemoveAll(path)
	return nil
}

var (
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	reservedChars  = regexp.MustCompile(`[\\/:*?"<>|]`)
	repeatedDashes = regexp.MustCompile(`-+`)
)

// windowsReserved lists device names that cannot be used as file names
// on Windows regardless of extension.
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFolderName strips characters that are invalid in directory
// names on any of the supported platforms. Video titles pass through
// here before they become directory names.
func SanitizeFolderName(name string) string {
	if name == "" {
		return ""
	}

	safe := controlChars.ReplaceAllString(name, "")
	safe = reservedChars.ReplaceAllString(safe, "-")
	// Windows rejects trailing spaces and dots.
	safe = strings.Trim(safe, " .")
	safe = repeatedDashes.ReplaceAllString(safe, "-")
	safe = strings.Trim(safe, "-")

	if windowsReserved[strings.ToUpper(safe)] {
		safe = safe + "_"
	}
	return safe
}

// SanitizeFolderPath sanitizes every component of a relative path,
// normalizing separators along the way.
func SanitizeFolderPath(folderPath string) string {
	if folderPath == "" {
		return ""
	}

	normalized := strings.ReplaceAll(folderPath, "\\", "/")
	cleaned := strings.Trim(filepath.Clean(normalized), "/\\")
	if cleaned == "" {
		return ""
	}

	var parts []string
	for _, component := range strings.Split(cleaned, "/") {
		if component != "" {
			parts = append(parts, SanitizeFolderName(component))
		}
	}
	return strings.Join(parts, string(os.PathSeparator))
}
