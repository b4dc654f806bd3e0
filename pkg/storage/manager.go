package storage

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Manager handles file storage operations and existence-based deduplication.
// All access goes through an afero filesystem so tests can run in memory.
type Manager struct {
	fs afero.Fs
	mu sync.Mutex
	// saved counts files written by this manager
	saved int
}

// NewManager creates a storage manager on top of fs. A nil fs means the OS filesystem.
func NewManager(fs afero.Fs) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Manager{fs: fs}
}

// Fs returns the underlying filesystem
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// Exists reports whether dir/name is present
func (m *Manager) Exists(dir, name string) bool {
	ok, err := afero.Exists(m.fs, filepath.Join(dir, name))
	return err == nil && ok
}

// IsDir reports whether p exists and is a directory
func (m *Manager) IsDir(p string) bool {
	ok, err := afero.IsDir(m.fs, p)
	return err == nil && ok
}

// MkdirAll creates dir and its parents
func (m *Manager) MkdirAll(dir string) error {
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// TempName returns the hidden temporary name used while dir/name is being written
func TempName(dir, name string) string {
	return filepath.Join(dir, "."+name)
}

// Save streams r into dir/name. The data is first written to a hidden
// temporary file which is renamed into place once complete, so a partial
// download never looks like a finished one.
func (m *Manager) Save(r io.Reader, dir, name string) (int64, error) {
	if err := m.MkdirAll(dir); err != nil {
		return 0, err
	}

	final := filepath.Join(dir, name)
	temp := TempName(dir, name)

	out, err := m.fs.Create(temp)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		_ = m.fs.Remove(temp)
		return n, fmt.Errorf("failed to save data: %w", err)
	}
	if closeErr != nil {
		_ = m.fs.Remove(temp)
		return n, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := m.fs.Rename(temp, final); err != nil {
		_ = m.fs.Remove(temp)
		return n, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return n, nil
}

// Rename moves a file into place, replacing the destination
func (m *Manager) Rename(from, to string) error {
	if err := m.fs.Rename(from, to); err != nil {
		return fmt.Errorf("failed to rename %s: %w", from, err)
	}
	return nil
}

// WriteFile atomically writes data to p
func (m *Manager) WriteFile(p string, data []byte) error {
	_, err := m.Save(bytes.NewReader(data), filepath.Dir(p), filepath.Base(p))
	return err
}

// ReadFile reads the whole file at p
func (m *Manager) ReadFile(p string) ([]byte, error) {
	return afero.ReadFile(m.fs, p)
}

// ReadDir lists dir sorted by name
func (m *Manager) ReadDir(dir string) ([]os.FileInfo, error) {
	return afero.ReadDir(m.fs, dir)
}

// Remove deletes a single file, ignoring a missing one
func (m *Manager) Remove(p string) error {
	if err := m.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveAll deletes p and everything below it
func (m *Manager) RemoveAll(p string) error {
	return m.fs.RemoveAll(p)
}

// CopyFS copies every file of src (rooted at root) into dst
func (m *Manager) CopyFS(src fs.FS, root, dst string) error {
	return fs.WalkDir(src, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(filepath.FromSlash(root), filepath.FromSlash(p))
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return m.MkdirAll(target)
		}

		data, err := fs.ReadFile(src, path.Clean(p))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		return afero.WriteFile(m.fs, target, data, 0o644)
	})
}

// SavedCount returns the number of files written through Save
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
