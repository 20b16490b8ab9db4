package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

var (
	// ErrNotFound is returned when no project with the requested name exists.
	ErrNotFound = errors.New("project not found")

	// ErrInvalidName is returned for a project name that cannot be stored.
	ErrInvalidName = errors.New("invalid project name")
)

// Store persists projects by name.
type Store interface {
	Load(ctx context.Context, name string) (*annotation.Project, error)

	// Save writes p and clears its unsaved flags.
	Save(ctx context.Context, p *annotation.Project) error

	// List returns the stored project names in lexical order.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// Open returns a SQLite store when sqlitePath is set and a JSON file store
// rooted at dir otherwise.
func Open(dir, sqlitePath string, log zerolog.Logger) (Store, error) {
	if sqlitePath != "" {
		s, err := OpenSQLite(sqlitePath, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewJSONStore(dir, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
