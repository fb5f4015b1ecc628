// camexif adds camera intrinsics EXIF tags to JPEG files.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"k8s.io/klog/v2"

	"github.com/tstromberg/camexif/pkg/backfill"
	"github.com/tstromberg/camexif/pkg/intrinsics"
	"github.com/tstromberg/camexif/pkg/manage"
	"github.com/tstromberg/camexif/pkg/sensor"
)

var (
	inDir       = flag.String("in", "", "Location of input directory")
	outDir      = flag.String("out", "", "Location of output directory (default: tag files in place)")
	camera      = flag.String("camera", "", "Sensor name or alias (default: estimate from resolution)")
	sensorsFile = flag.String("sensors", "", "JSON file with sensor overrides")
	dryRun      = flag.Bool("n", false, "dry-run mode, don't write anything")
	overwrite   = flag.Bool("o", false, "overwrite existing intrinsics")
	watchFlag   = flag.Bool("watch", false, "watch the input directory for new files")
	listen      = flag.Bool("listen", false, "serve the sensor table via HTTP")
	addr        = flag.String("addr", "localhost:12801", "host:port to bind to in listen mode")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	sensors := sensor.Default()
	if *sensorsFile != "" {
		t, err := sensor.LoadFile(*sensorsFile)
		if err != nil {
			klog.Exitf("sensors: %v", err)
		}
		sensors = t
	}

	if *inDir == "" && !*listen {
		klog.Exitf("--in is a required flag")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var wg sync.WaitGroup

	if *inDir != "" {
		w, err := intrinsics.NewExiftoolWriter()
		if err != nil {
			klog.Exitf("exiftool failed: %v", err)
		}
		defer func() {
			if err := w.Close(); err != nil {
				klog.Errorf("Failed to close exiftool: %v", err)
			}
		}()

		c := &backfill.Config{
			InDir:     *inDir,
			OutDir:    *outDir,
			Camera:    *camera,
			DryRun:    *dryRun,
			Overwrite: *overwrite,
		}
		p := backfill.New(c, sensors, w)

		if _, err := p.Run(); err != nil {
			klog.Exitf("backfill failed: %v", err)
		}

		if *watchFlag {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := p.Watch(ctx); err != nil {
					klog.Errorf("watch failed: %v", err)
				}
			}()
		}
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(ctx, sensors, *addr)
		}()
	}

	wg.Wait()
}

// serve serves the sensor table via HTTP until ctx is done.
func serve(ctx context.Context, sensors *sensor.Table, addr string) {
	srv := &http.Server{Addr: addr, Handler: manage.New(sensors).Handler()}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	klog.Infof("Listening on %s...", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		klog.Exitf("listen failed: %v", err)
	}
}
