// Package storage reads and writes the YAML documents the menu is built from: the
// weekly rule, the recipe catalog and the ingredient groups, plus the menu log.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"menumaker/internal/apperrors"

	"gopkg.in/yaml.v3"
)

// BackupSuffix is appended to a data file name to get its backup copy.
const BackupSuffix = ".bak"

// BackupPath returns where the previous version of path is kept.
func BackupPath(path string) string {
	return path + BackupSuffix
}

// replaceFile copies the current content of path to its backup, then replaces path
// with data through a temporary file and a rename.
func replaceFile(path string, data []byte) error {
	backup := BackupPath(path)
	if err := copyFile(path, backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to back up %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s (previous version kept in %s): %w", path, backup, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s (previous version kept in %s): %w", path, backup, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s (previous version kept in %s): %w", path, backup, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s (previous version kept in %s): %w", path, backup, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func readDocument(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", apperrors.ErrConfig, path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func encode(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(4)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
