package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/justingeeslin/opensensecam/internal/camera"
	"github.com/justingeeslin/opensensecam/internal/exif"
	"github.com/justingeeslin/opensensecam/internal/gps"
)

// CaptureEvent describes one completed capture cycle, for telemetry and
// the status display. Frame bytes are deliberately not part of it.
type CaptureEvent struct {
	File   string    `json:"file"`
	Time   time.Time `json:"time"`
	HasFix bool      `json:"has_fix"`
	Quality int      `json:"quality"`
}

// CaptureLoop owns the camera handle. Each cycle it captures one frame,
// snapshots the registry, embeds the geotag, and writes the tagged JPEG to
// the output directory. A failed cycle is logged and skipped; the session
// continues.
type CaptureLoop struct {
	cam      camera.Camera
	reg      *gps.Registry
	interval time.Duration
	outDir   string

	// onCapture, when set, is called after each successful write.
	onCapture func(CaptureEvent)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewCaptureLoop(cam camera.Camera, reg *gps.Registry, interval time.Duration, outDir string) *CaptureLoop {
	return &CaptureLoop{
		cam:      cam,
		reg:      reg,
		interval: interval,
		outDir:   outDir,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (l *CaptureLoop) Start() {
	go l.run()
}

func (l *CaptureLoop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *CaptureLoop) Join(timeout time.Duration) bool {
	select {
	case <-l.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (l *CaptureLoop) run() {
	defer close(l.done)
	log.Printf("capture: loop started (every %v into %s)", l.interval, l.outDir)

	for {
		select {
		case <-l.stop:
			log.Println("capture: loop stopped")
			return
		default:
		}

		start := time.Now()
		if err := l.captureOne(start); err != nil {
			log.Printf("capture: %v", err)
		}

		// Sleep the remainder of the interval so per-cycle capture cost
		// does not accumulate drift. Clamped at zero.
		wait := l.interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-l.stop:
			log.Println("capture: loop stopped")
			return
		case <-time.After(wait):
		}
	}
}

func (l *CaptureLoop) captureOne(now time.Time) error {
	frame, err := l.cam.Capture()
	if err != nil {
		return fmt.Errorf("frame capture failed: %w", err)
	}

	snap, ok := l.reg.Snapshot()
	var fix *gps.Fix
	if ok {
		fix = &snap
	}

	tagged, err := exif.EmbedJPEG(frame, exif.Build(now, fix))
	if err != nil {
		return fmt.Errorf("geotag embed failed: %w", err)
	}

	name := fmt.Sprintf("photo_%s.jpg", now.Format("20060102_150405"))
	path := filepath.Join(l.outDir, name)
	if err := os.WriteFile(path, tagged, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Printf("capture: saved %s (%d bytes, fix=%v)", path, len(tagged), ok)

	if l.onCapture != nil {
		ev := CaptureEvent{File: name, Time: now, HasFix: ok}
		if fix != nil {
			ev.Quality = fix.Quality
		}
		l.onCapture(ev)
	}
	return nil
}
