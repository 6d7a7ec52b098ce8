package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindUniqueFile returns the one file named name below root
func FindUniqueFile(root, name string) (string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", root, err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("failed to find file %s in %s", name, root)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("found too many files named %s in %s: %s", name, root, strings.Join(matches, ", "))
	}
}

// DeleteDir removes dir and everything below it. A missing dir is not an error.
func DeleteDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete %s: %w", dir, err)
	}
	return nil
}
