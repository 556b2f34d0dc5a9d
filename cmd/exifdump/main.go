package main

import (
	"fmt"
	"log"
	"os"

	"github.com/justingeeslin/opensensecam/internal/exif"
)

// exifdump prints the geotag block of a captured photo, for checking what
// the worker actually wrote without pulling the card into a photo tool.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: exifdump <photo.jpg>")
	}

	b, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("read: %v", err)
	}

	m, err := exif.Decode(b)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}

	fmt.Printf("Make:     %s\n", m.Make)
	fmt.Printf("Model:    %s\n", m.Model)
	fmt.Printf("Software: %s\n", m.Software)
	fmt.Printf("Taken:    %s\n", m.CaptureTime.Format("2006-01-02 15:04:05"))
	if m.Comment != "" {
		fmt.Printf("Comment:  %s\n", m.Comment)
	}

	if m.GPS == nil {
		fmt.Println("No positioning data")
		return
	}

	g := m.GPS
	fmt.Printf("Latitude:  %s %s\n", formatDMS(g.Latitude), g.LatitudeRef)
	fmt.Printf("Longitude: %s %s\n", formatDMS(g.Longitude), g.LongitudeRef)
	if g.HasAltitude {
		ref := "above"
		if g.AltitudeRef == 1 {
			ref = "below"
		}
		fmt.Printf("Altitude:  %.1fm %s reference\n", g.Altitude.Float(), ref)
	}
	if g.HasTimeStamp {
		fmt.Printf("Fix time:  %s %02.0f:%02.0f:%02.0f UTC\n", g.DateStamp,
			g.TimeStamp[0].Float(), g.TimeStamp[1].Float(), g.TimeStamp[2].Float())
	}
}

func formatDMS(dms [3]exif.Rational) string {
	return fmt.Sprintf("%.0f° %.0f' %.4f\"", dms[0].Float(), dms[1].Float(), dms[2].Float())
}
