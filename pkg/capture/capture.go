// Package capture saves camera frames as JPEG files tagged with camera intrinsics.
package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/tstromberg/camexif/pkg/intrinsics"
	"github.com/tstromberg/camexif/pkg/sensor"
)

// Default values, used when a Config field is left empty.
const (
	DefaultQuality     = 95
	DefaultOrientation = 1
	DefaultSoftware    = "camexif"
	DefaultOutDir      = "."
)

// Config holds capture settings.
type Config struct {
	Camera      string // Sensor identifier or alias
	Width       int    // Output width; zero keeps the frame width
	Height      int    // Output height; zero keeps the frame height
	Quality     int    // JPEG quality
	Orientation int    // EXIF orientation flag
	Software    string
	OutDir      string
}

// Source produces camera frames.
type Source interface {
	Frame(ctx context.Context) (image.Image, error)
}

// Result describes a saved capture.
type Result struct {
	ID         string
	Path       string
	Resolution intrinsics.Resolution
	// Intrinsics is nil when they could not be written.
	Intrinsics *intrinsics.Intrinsics
	// MetadataErr records why intrinsics were skipped. It never fails a capture.
	MetadataErr error
}

// Controller captures frames from a Source.
type Controller struct {
	c       Config
	sensors *sensor.Table
	src     Source
	w       intrinsics.Writer
}

// New returns a controller, filling empty settings with defaults.
func New(c Config, sensors *sensor.Table, src Source, w intrinsics.Writer) *Controller {
	if c.Quality == 0 {
		c.Quality = DefaultQuality
	}
	if c.Orientation == 0 {
		c.Orientation = DefaultOrientation
	}
	if c.Software == "" {
		c.Software = DefaultSoftware
	}
	if c.OutDir == "" {
		c.OutDir = DefaultOutDir
	}
	if sensors == nil {
		sensors = sensor.Default()
	}

	return &Controller{c: c, sensors: sensors, src: src, w: w}
}

// Config returns the controller settings.
func (ct *Controller) Config() Config {
	return ct.c
}

// Capture grabs a frame, saves it, and tags it with intrinsics.
// Only frame and save failures are returned; metadata problems are logged
// and recorded in Result.MetadataErr.
func (ct *Controller) Capture(ctx context.Context, extra intrinsics.Fields) (*Result, error) {
	img, err := ct.src.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}

	img = ct.fit(img)
	b := img.Bounds()

	r := &Result{
		ID:         uuid.NewString(),
		Resolution: intrinsics.Resolution{Width: b.Dx(), Height: b.Dy()},
	}
	r.Path = filepath.Join(ct.c.OutDir, r.ID+".jpg")

	if err := os.MkdirAll(ct.c.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	if err := imgio.Save(r.Path, img, imgio.JPEGEncoder(ct.c.Quality)); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	base := intrinsics.Fields{
		"Orientation": ct.c.Orientation,
		"Model":       ct.c.Camera,
		"Software":    ct.c.Software,
	}

	in, err := intrinsics.Apply(ct.w, ct.sensors, r.Path, ct.c.Camera, r.Resolution, base, extra)
	if err != nil {
		klog.Warningf("capture %s: no intrinsics for camera %q at %s: %v", r.ID, ct.c.Camera, r.Resolution, err)
		r.MetadataErr = err
	} else {
		r.Intrinsics = &in
	}

	klog.Infof("captured %s (%s) to %s", r.ID, r.Resolution, r.Path)
	return r, nil
}

// fit scales a frame to the configured output size.
func (ct *Controller) fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := ct.c.Width, ct.c.Height
	if w == 0 {
		w = b.Dx()
	}
	if h == 0 {
		h = b.Dy()
	}
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	klog.V(1).Infof("resizing frame %dx%d -> %dx%d", b.Dx(), b.Dy(), w, h)
	return transform.Resize(img, w, h, transform.Lanczos)
}
