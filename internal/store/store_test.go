package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

func sampleProject(name string) *annotation.Project {
	m := annotation.NewMask(4, 3)
	m.Set(1, 1, true)
	m.Set(2, 1, true)

	return &annotation.Project{
		Name:          name,
		Type:          annotation.TypePolygon,
		Classes:       annotation.Classes{{ID: 0, Name: "road", Color: "#336699"}},
		KeypointNames: []string{"a", "b"},
		Skeleton:      [][2]int{{1, 2}},
		ImageDir:      "/data/images",
		Images: []*annotation.ImageRecord{
			{
				ID: "img-1", FileName: "one.jpg", Width: 640, Height: 480, Unsaved: true,
				Annotations: []annotation.Annotation{
					{Type: annotation.TypePolygon, ClassID: 0, Data: &annotation.Polygon{
						Closed: true,
						Points: []geometry.Point{{X: 1, Y: 2}, {X: 30, Y: 2}, {X: 15, Y: 40}},
					}},
					{Type: annotation.TypeMask, ClassID: 0, Data: m},
				},
			},
			{ID: "img-2", FileName: "two.jpg", Width: 320, Height: 240, Annotations: []annotation.Annotation{}},
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	js, err := NewJSONStore(filepath.Join(dir, "projects"), zerolog.Nop())
	require.NoError(t, err)

	sq, err := OpenSQLite(filepath.Join(dir, "projects.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{"json": js, "sqlite": sq}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := sampleProject("streets")
			require.True(t, p.Unsaved())

			require.NoError(t, s.Save(ctx, p))
			assert.False(t, p.Unsaved())

			got, err := s.Load(ctx, "streets")
			require.NoError(t, err)
			assert.Equal(t, p.Name, got.Name)
			assert.Equal(t, p.Type, got.Type)
			assert.Equal(t, p.Classes, got.Classes)
			assert.Equal(t, p.KeypointNames, got.KeypointNames)
			assert.Equal(t, p.Skeleton, got.Skeleton)
			assert.Equal(t, p.ImageDir, got.ImageDir)

			require.Len(t, got.Images, 2)
			assert.Equal(t, "img-1", got.Images[0].ID)
			assert.Equal(t, "img-2", got.Images[1].ID)
			assert.Equal(t, p.Images[0].Annotations, got.Images[0].Annotations)
			assert.Empty(t, got.Images[1].Annotations)
		})
	}
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := sampleProject("streets")
			require.NoError(t, s.Save(ctx, p))

			p.Images = p.Images[1:]
			p.Classes = append(p.Classes, annotation.Class{ID: 1, Name: "curb"})
			require.NoError(t, s.Save(ctx, p))

			got, err := s.Load(ctx, "streets")
			require.NoError(t, err)
			require.Len(t, got.Images, 1)
			assert.Equal(t, "img-2", got.Images[0].ID)
			assert.Len(t, got.Classes, 2)
		})
	}
}

func TestStore_NotFoundAndList(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			names, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, names)

			require.NoError(t, s.Save(ctx, sampleProject("zeta")))
			require.NoError(t, s.Save(ctx, sampleProject("alpha")))

			names, err = s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "zeta"}, names)
		})
	}
}

func TestStore_RejectsPathNames(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "../etc")
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.ErrorIs(t, s.Save(ctx, sampleProject("")), ErrInvalidName)
		})
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, "", zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open(dir, filepath.Join(dir, "a.db"), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())
}
