package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrBundlePath is returned for an artifact path that is absolute or escapes
// the bundle root.
var ErrBundlePath = errors.New("invalid bundle path")

// Bundle receives the artifacts of one export.
type Bundle interface {
	// Put stores data under a slash-separated relative path.
	Put(name string, data []byte) error
	Close() error
}

func cleanPath(name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrBundlePath, name)
	}
	return clean, nil
}

// OpenBundle returns a zip bundle for a path ending in .zip and a directory
// bundle otherwise.
func OpenBundle(target string) (Bundle, error) {
	if strings.EqualFold(filepath.Ext(target), ".zip") {
		z, err := CreateZipBundle(target)
		if err != nil {
			return nil, err
		}
		return z, nil
	}
	d, err := NewDirBundle(target)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// MemoryBundle keeps artifacts in memory.
type MemoryBundle struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemoryBundle returns an empty in-memory bundle.
func NewMemoryBundle() *MemoryBundle {
	return &MemoryBundle{files: make(map[string][]byte)}
}

func (m *MemoryBundle) Put(name string, data []byte) error {
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBundle) Close() error { return nil }

// Get returns the artifact stored under name.
func (m *MemoryBundle) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	return data, ok
}

// Names returns the stored paths in lexical order.
func (m *MemoryBundle) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored artifacts.
func (m *MemoryBundle) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// DirBundle writes artifacts below a root directory.
type DirBundle struct {
	root string
}

// NewDirBundle creates root if needed.
func NewDirBundle(root string) (*DirBundle, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &DirBundle{root: root}, nil
}

func (d *DirBundle) Put(name string, data []byte) error {
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}
	full := filepath.Join(d.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", clean, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", clean, err)
	}
	return nil
}

func (d *DirBundle) Close() error { return nil }

// ZipBundle streams artifacts into a zip archive.
type ZipBundle struct {
	zw     *zip.Writer
	closer io.Closer
}

// NewZipBundle writes the archive to w. Closing the bundle does not close w.
func NewZipBundle(w io.Writer) *ZipBundle {
	return &ZipBundle{zw: zip.NewWriter(w)}
}

// CreateZipBundle creates the archive file at target.
func CreateZipBundle(target string) (*ZipBundle, error) {
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	return &ZipBundle{zw: zip.NewWriter(f), closer: f}, nil
}

func (z *ZipBundle) Put(name string, data []byte) error {
	clean, err := cleanPath(name)
	if err != nil {
		return err
	}
	w, err := z.zw.Create(clean)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", clean, err)
	}
	_, err = w.Write(data)
	return err
}

func (z *ZipBundle) Close() error {
	err := z.zw.Close()
	if z.closer != nil {
		if cerr := z.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
