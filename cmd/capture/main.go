// capture saves synthetic camera frames tagged with camera intrinsics.
package main

import (
	"context"
	"flag"

	"k8s.io/klog/v2"

	"github.com/tstromberg/camexif/pkg/capture"
	"github.com/tstromberg/camexif/pkg/intrinsics"
	"github.com/tstromberg/camexif/pkg/sensor"
)

var (
	camera      = flag.String("camera", "imx519", "Sensor name or alias")
	outDir      = flag.String("out", "", "Location of output directory")
	sensorsFile = flag.String("sensors", "", "JSON file with sensor overrides")
	frameWidth  = flag.Int("frame-width", 1280, "width of the synthetic frame")
	frameHeight = flag.Int("frame-height", 960, "height of the synthetic frame")
	width       = flag.Int("width", 0, "output width (default: frame width)")
	height      = flag.Int("height", 0, "output height (default: frame height)")
	quality     = flag.Int("quality", capture.DefaultQuality, "JPEG quality")
	orientation = flag.Int("orientation", capture.DefaultOrientation, "EXIF orientation flag")
	count       = flag.Int("count", 1, "number of frames to capture")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *outDir == "" {
		klog.Exitf("--out is a required flag")
	}

	sensors := sensor.Default()
	if *sensorsFile != "" {
		t, err := sensor.LoadFile(*sensorsFile)
		if err != nil {
			klog.Exitf("sensors: %v", err)
		}
		sensors = t
	}

	w, err := intrinsics.NewExiftoolWriter()
	if err != nil {
		klog.Exitf("exiftool failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			klog.Errorf("Failed to close exiftool: %v", err)
		}
	}()

	c := capture.Config{
		Camera:      *camera,
		Width:       *width,
		Height:      *height,
		Quality:     *quality,
		Orientation: *orientation,
		OutDir:      *outDir,
	}
	ct := capture.New(c, sensors, capture.PatternSource{Width: *frameWidth, Height: *frameHeight}, w)

	ctx := context.Background()
	for i := 0; i < *count; i++ {
		r, err := ct.Capture(ctx, nil)
		if err != nil {
			klog.Exitf("capture failed: %v", err)
		}
		if r.Intrinsics != nil {
			klog.Infof("%s: %s", r.Path, r.Intrinsics)
		}
	}
}
