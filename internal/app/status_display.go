package app

import (
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/justingeeslin/opensensecam/internal/gps"
)

// StatusDisplay renders the current fix and photo count on an SSD1306
// OLED. It reads the registry directly on its own cadence; losing the
// display never affects the pipeline.
type StatusDisplay struct {
	dev      *ssd1306.Dev
	bus      i2c.BusCloser
	reg      *gps.Registry
	interval time.Duration
	photos   atomic.Uint64

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewStatusDisplay(busName string, reg *gps.Registry, interval time.Duration) (*StatusDisplay, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}

	d := &StatusDisplay{
		dev:      dev,
		bus:      bus,
		reg:      reg,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if err := d.showSplash(); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, nil
}

// NoteCapture bumps the photo counter; wired as a capture-loop callback.
func (d *StatusDisplay) NoteCapture(CaptureEvent) {
	d.photos.Add(1)
}

func (d *StatusDisplay) Start() {
	go d.run()
}

func (d *StatusDisplay) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
	d.bus.Close()
}

func (d *StatusDisplay) run() {
	defer close(d.done)
	log.Println("display: starting update loop")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			if err := d.render(); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

func (d *StatusDisplay) render() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(time.Now().Format("15:04:05")))

	fix, ok := d.reg.Snapshot()
	if !ok {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("No fix"))
	} else {
		lat, latDir := fix.Latitude, "N"
		if lat < 0 {
			latDir = "S"
			lat = -lat
		}
		lon, lonDir := fix.Longitude, "E"
		if lon < 0 {
			lonDir = "W"
			lon = -lon
		}

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lat, latDir)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("%.4f%s", lon, lonDir)))

		drawer.Dot = fixed.P(64, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Q%d/%d", fix.Quality, fix.Satellites)))
	}

	drawer.Dot = fixed.P(0, 52)
	drawer.DrawBytes([]byte(fmt.Sprintf("Photos: %d", d.photos.Load())))

	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

func (d *StatusDisplay) showSplash() error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("OpenSenseCam"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Looking for"))

	drawer.Dot = fixed.P(25, 56)
	drawer.DrawBytes([]byte("sats"))

	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}
