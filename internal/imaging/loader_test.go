package imaging

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// solid returns a width x height image filled with c.
func solid(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// writePNG encodes img into dir/name and returns the path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestImageCache_Load(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", solid(40, 30, color.White))
	cache := NewImageCache()

	img, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
	assert.Equal(t, 1, cache.Len())

	again, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, img, again)
	assert.Equal(t, 1, cache.Len())
}

func TestImageCache_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	cache := NewImageCache()

	_, err := cache.Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = cache.Load(bad)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestImageCache_EvictAndClear(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", solid(4, 4, color.Black))
	b := writePNG(t, dir, "b.png", solid(4, 4, color.Black))
	cache := NewImageCache()

	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)
	require.Equal(t, 2, cache.Len())

	cache.Evict(a)
	cache.Evict(filepath.Join(dir, "never-loaded.png"))
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", solid(16, 16, color.White))
	cache := NewImageCache()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestLoadImageInfo(t *testing.T) {
	dir := t.TempDir()
	pngPath := writePNG(t, dir, "a.png", solid(20, 10, color.White))

	jpgPath := filepath.Join(dir, "b.jpg")
	f, err := os.Create(jpgPath)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, solid(8, 6, color.White), nil))
	require.NoError(t, f.Close())

	cache := NewImageCache()

	info, err := LoadImageInfo(cache, pngPath)
	require.NoError(t, err)
	assert.Equal(t, 20, info.Width)
	assert.Equal(t, 10, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.True(t, info.HasAlpha)
	assert.Positive(t, info.FileSizeBytes)

	info, err = LoadImageInfo(cache, jpgPath)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", info.Format)
	assert.Equal(t, 8, info.Width)

	_, err = LoadImageInfo(cache, filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestGetDimensions(t *testing.T) {
	path := writePNG(t, t.TempDir(), "a.png", solid(64, 48, color.White))

	dims, err := GetDimensions(NewImageCache(), path)
	require.NoError(t, err)
	assert.Equal(t, &DimensionsResult{Width: 64, Height: 48}, dims)
}

func TestNewRecord(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "street-01.png", solid(32, 24, color.White))

	rec, err := NewRecord(NewImageCache(), dir, "street-01.png")
	require.NoError(t, err)
	assert.Equal(t, "street-01", rec.ID)
	assert.Equal(t, "street-01.png", rec.FileName)
	assert.Equal(t, 32, rec.Width)
	assert.Equal(t, 24, rec.Height)
	assert.NotNil(t, rec.Annotations)
	assert.Empty(t, rec.Annotations)

	_, err = NewRecord(NewImageCache(), dir, "missing.png")
	assert.Error(t, err)
}
