package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

const projectExt = ".json"

// JSONStore keeps one <name>.json document per project in a directory.
type JSONStore struct {
	dir string
	log zerolog.Logger
}

// NewJSONStore creates dir if needed.
func NewJSONStore(dir string, log zerolog.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	return &JSONStore{dir: dir, log: log.With().Str("store", "json").Logger()}, nil
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name+projectExt)
}

func (s *JSONStore) Load(ctx context.Context, name string) (*annotation.Project, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project %q: %w", name, err)
	}

	var p annotation.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project %q: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	s.log.Debug().Str("project", name).Int("images", len(p.Images)).Msg("project loaded")
	return &p, nil
}

// Save writes the project to a temporary file and renames it into place.
func (s *JSONStore) Save(ctx context.Context, p *annotation.Project) error {
	if err := checkName(p.Name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project %q: %w", p.Name, err)
	}

	tmp, err := os.CreateTemp(s.dir, p.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to save project %q: %w", p.Name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save project %q: %w", p.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save project %q: %w", p.Name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(p.Name)); err != nil {
		return fmt.Errorf("failed to save project %q: %w", p.Name, err)
	}

	p.MarkSaved()
	s.log.Debug().Str("project", p.Name).Msg("project saved")
	return nil
}

func (s *JSONStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), projectExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), projectExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *JSONStore) Close() error { return nil }
