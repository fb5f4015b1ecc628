// Package backfill adds camera intrinsics to JPEG files that are already on disk.
package backfill

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/camexif/pkg/intrinsics"
	"github.com/tstromberg/camexif/pkg/sensor"
)

// Config holds backfill settings.
type Config struct {
	InDir string
	// OutDir receives tagged copies. When empty, files in InDir are tagged in place.
	OutDir string
	// Camera is the sensor identifier. When empty, the sensor is estimated from each image's resolution.
	Camera    string
	DryRun    bool
	Overwrite bool
}

// Reader reads intrinsics already stored in a file.
type Reader interface {
	Read(path string) (intrinsics.Intrinsics, bool, error)
}

// Report summarizes a backfill run.
type Report struct {
	Tagged  int
	Skipped int
	Failed  int
}

// Processor tags individual files.
type Processor struct {
	c       *Config
	sensors *sensor.Table
	w       intrinsics.Writer
}

// New returns a processor. If w also implements Reader, already tagged files are skipped unless c.Overwrite is set.
func New(c *Config, sensors *sensor.Table, w intrinsics.Writer) *Processor {
	if sensors == nil {
		sensors = sensor.Default()
	}
	return &Processor{c: c, sensors: sensors, w: w}
}

func isJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}

// Run walks c.InDir and tags every JPEG found.
// Per-file problems are logged and counted; only walk errors are returned.
func (p *Processor) Run() (*Report, error) {
	root := filepath.Clean(p.c.InDir)
	klog.Infof("backfill: %s -> %s", root, p.dest(root))
	r := &Report{}

	err := p.walk(root, root, func(path string, isDir bool) error {
		if isDir || !isJPEG(path) {
			return nil
		}

		switch p.Process(path) {
		case Tagged:
			r.Tagged++
		case Skipped:
			r.Skipped++
		default:
			r.Failed++
		}
		return nil
	})
	if err != nil {
		return r, fmt.Errorf("walk: %w", err)
	}

	klog.Infof("backfill: %d tagged, %d skipped, %d failed", r.Tagged, r.Skipped, r.Failed)
	return r, nil
}

// skip reports whether path below root is left alone: hidden entries, and
// the output directory when it lives inside the input tree.
func (p *Processor) skip(root, path string) bool {
	path = filepath.Clean(path)
	if path == root {
		return false
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	return p.c.OutDir != "" && samePath(path, p.c.OutDir)
}

func samePath(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	ab, err := filepath.Abs(b)
	if err != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == ab
}

// walk calls fn for dir and every entry below it that skip does not exclude.
func (p *Processor) walk(root, dir string, fn func(path string, isDir bool) error) error {
	return godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if p.skip(root, path) {
				if de.IsDir() {
					return godirwalk.SkipThis
				}
				return nil
			}
			return fn(path, de.IsDir())
		},
	})
}

// Outcome is the result of processing one file.
type Outcome int

const (
	Failed Outcome = iota
	Tagged
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Tagged:
		return "tagged"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Process tags a single file. Problems are logged as warnings.
func (p *Processor) Process(path string) Outcome {
	return p.process(path, p.c.Overwrite)
}

func (p *Processor) process(path string, overwrite bool) Outcome {
	dest := p.dest(path)
	if p.c.DryRun {
		dest = path
	} else if dest != path {
		if err := freshen(path, dest); err != nil {
			klog.Warningf("%s: copy failed: %v", path, err)
			return Failed
		}
	}

	res, err := resolution(dest)
	if err != nil {
		klog.Warningf("%s: unable to read dimensions: %v", dest, err)
		return Failed
	}

	if rd, ok := p.w.(Reader); ok && !overwrite {
		_, found, err := rd.Read(dest)
		if err != nil {
			klog.Warningf("%s: unable to read existing metadata: %v", dest, err)
		}
		if found {
			klog.V(1).Infof("%s already has intrinsics", dest)
			return Skipped
		}
	}

	camera := p.c.Camera
	if camera == "" {
		sp, ok := p.sensors.EstimateFromResolution(res.Width, res.Height)
		if !ok {
			klog.Warningf("%s: no intrinsics: no sensor matches %s", dest, res)
			return Failed
		}
		camera = sp.Name
		klog.V(1).Infof("%s: estimated sensor %s from %s", dest, camera, res)
	}

	if p.c.DryRun {
		in, err := intrinsics.Build(p.sensors, camera, res)
		if err != nil {
			klog.Warningf("%s: no intrinsics for camera %q at %s: %v", dest, camera, res, err)
			return Failed
		}
		klog.Infof("dry-run: would tag %s with %s", dest, in)
		return Tagged
	}

	in, err := intrinsics.Apply(p.w, p.sensors, dest, camera, res, nil, nil)
	if err != nil {
		klog.Warningf("%s: no intrinsics for camera %q at %s: %v", dest, camera, res, err)
		return Failed
	}

	klog.Infof("tagged %s: %s", dest, in)
	return Tagged
}

// dest returns where path is written to.
func (p *Processor) dest(path string) string {
	if p.c.OutDir == "" {
		return path
	}
	rel, err := filepath.Rel(p.c.InDir, path)
	if err != nil {
		return path
	}
	return filepath.Join(p.c.OutDir, rel)
}

// freshen copies src to dst if dst is missing or older than src.
// Size is not compared, since tagging changes the size of dst.
func freshen(src, dst string) error {
	sst, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	dstat, err := os.Stat(dst)
	switch {
	case err != nil:
		klog.V(1).Infof("updating %s: does not exist", dst)
	case sst.ModTime().After(dstat.ModTime()):
		klog.V(1).Infof("updating %s: source newer", dst)
	default:
		return nil
	}

	if err := copy.Copy(src, dst); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

func resolution(path string) (intrinsics.Resolution, error) {
	f, err := os.Open(path)
	if err != nil {
		return intrinsics.Resolution{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return intrinsics.Resolution{}, fmt.Errorf("decode: %w", err)
	}

	return intrinsics.Resolution{Width: ic.Width, Height: ic.Height}, nil
}
