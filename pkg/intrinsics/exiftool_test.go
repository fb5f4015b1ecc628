package intrinsics

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/camexif/pkg/sensor"
)

func newTestWriter(t *testing.T) *ExiftoolWriter {
	t.Helper()
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	w, err := NewExiftoolWriter()
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return w
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	require.NoError(t, imgio.Save(path, img, imgio.JPEGEncoder(90)))
}

func TestExiftoolRoundTrip(t *testing.T) {
	w := newTestWriter(t)
	path := filepath.Join(t.TempDir(), "frame.jpg")
	writeJPEG(t, path, 64, 48)

	_, found, err := w.Read(path)
	require.NoError(t, err)
	assert.False(t, found, "fresh JPEG has no focal length")

	in, err := Build(sensor.Default(), "imx519", Resolution{Width: 4656, Height: 3496})
	require.NoError(t, err)
	require.NoError(t, w.Write(path, in.Fields()))

	got, found, err := w.Read(path)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in.FocalLength, got.FocalLength)
	assert.Equal(t, in.FocalLength35mm, got.FocalLength35mm)
	assert.Equal(t, in.PixelX, got.PixelX)
	assert.Equal(t, in.PixelY, got.PixelY)
}

func TestExiftoolWriteMissingFile(t *testing.T) {
	w := newTestWriter(t)
	err := w.Write(filepath.Join(t.TempDir(), "missing.jpg"), Fields{"Model": "imx519"})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestExiftoolWriteNotJPEG(t *testing.T) {
	w := newTestWriter(t)
	path := filepath.Join(t.TempDir(), "junk.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not a jpeg"), 0o644))

	err := w.Write(path, Fields{"Model": "imx519"})
	assert.ErrorIs(t, err, ErrEncoding)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "not a jpeg", string(data))
}

func TestSetFieldUnsupported(t *testing.T) {
	w := &ExiftoolWriter{}
	path := filepath.Join(t.TempDir(), "x.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xD8}, 0o644))

	err := w.Write(path, Fields{"Bogus": struct{}{}})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestWriteEmptyFields(t *testing.T) {
	w := &ExiftoolWriter{}
	assert.NoError(t, w.Write("/nonexistent", nil))
}

func TestExiftoolConcurrentWrites(t *testing.T) {
	w := newTestWriter(t)
	dir := t.TempDir()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		path := filepath.Join(dir, fmt.Sprintf("%d.jpg", i))
		writeJPEG(t, path, 32, 24)
		in, err := Build(sensor.Default(), "imx708", Resolution{Width: 32, Height: 24})
		require.NoError(t, err)

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = w.Write(path, in.Fields())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "write %d", i)
		got, ok, err := w.Read(filepath.Join(dir, fmt.Sprintf("%d.jpg", i)))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(474), got.FocalLength.Num)
	}
}
