// Command vtk-gen writes a synthetic .vtk track log for exercising vtktool.
package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/velocitek/vtk-protocol/internal/vtk"
)

// foreignField is a field number outside the record schema, used to emit
// records that are not position reports.
const foreignField protowire.Number = 2

func main() {
	output := flag.String("o", "sample.vtk", "output path")
	points := flag.Int("n", 600, "number of track points")
	step := flag.Duration("step", 500*time.Millisecond, "time between fixes")
	other := flag.Int("other", 0, "insert a non-position record every N points (0 disables)")
	garbage := flag.Bool("garbage", false, "end the log with a truncated frame")
	lat := flag.Float64("lat", 50.7660, "start latitude")
	lon := flag.Float64("lon", -1.2970, "start longitude")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create %s: %v", *output, err)
	}
	bw := bufio.NewWriter(f)
	fw := vtk.NewFrameWriter(bw)

	foreign, err := vtk.EncodeRecord(&vtk.Record{Unknown: []protowire.Number{foreignField}})
	if err != nil {
		log.Fatalf("failed to encode record: %v", err)
	}

	gen := vtk.NewSyntheticTrack(time.Now().UTC(), *lat, *lon, *step)
	for i := 0; i < *points; i++ {
		tp := gen.Next()
		data, err := vtk.EncodeRecord(&vtk.Record{Variant: vtk.VariantTrackPoint, TrackPoint: &tp})
		if err != nil {
			log.Fatalf("failed to encode point %d: %v", i, err)
		}
		if err := fw.WriteFrame(data); err != nil {
			log.Fatalf("failed to write point %d: %v", i, err)
		}
		if *other > 0 && (i+1)%*other == 0 {
			if err := fw.WriteFrame(foreign); err != nil {
				log.Fatalf("failed to write record: %v", err)
			}
		}
		if (i+1)%100 == 0 {
			log.Printf("%d/%d points", i+1, *points)
		}
	}

	if *garbage {
		// Length prefix promising more bytes than follow.
		if _, err := bw.Write([]byte{0x20, 0x00, 0x0a, 0x1e}); err != nil {
			log.Fatalf("failed to write trailer: %v", err)
		}
	}

	if err := bw.Flush(); err != nil {
		log.Fatalf("failed to flush %s: %v", *output, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("failed to close %s: %v", *output, err)
	}
	log.Printf("✓ Created: %s", *output)
}
