// sensors prints the sensor table.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"k8s.io/klog/v2"

	"github.com/tstromberg/camexif/pkg/sensor"
)

var sensorsFile = flag.String("sensors", "", "JSON file with sensor overrides")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	t := sensor.Default()
	if *sensorsFile != "" {
		var err error
		t, err = sensor.LoadFile(*sensorsFile)
		if err != nil {
			klog.Exitf("sensors: %v", err)
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tALIASES\tFOCAL\t35MM\tNATIVE\tPIXEL")
	for _, p := range t.Profiles() {
		fmt.Fprintf(tw, "%s\t%s\t%.2fmm\t%dmm\t%dx%d\t%.2fum\n",
			p.Name, strings.Join(p.Aliases, ","), p.FocalLengthMM, p.FocalLength35mm,
			p.NativeWidth, p.NativeHeight, p.PixelSizeUM())
	}
	tw.Flush()

	for _, id := range flag.Args() {
		if p, ok := t.Resolve(id); ok {
			fmt.Printf("%s -> %s\n", id, p.Name)
		} else {
			fmt.Printf("%s -> (unknown)\n", id)
		}
	}
}
