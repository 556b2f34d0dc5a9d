package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justingeeslin/opensensecam/internal/camera"
	"github.com/justingeeslin/opensensecam/internal/config"
	"github.com/justingeeslin/opensensecam/internal/gps"
)

// joinTimeout bounds how long shutdown waits for each loop. A loop that
// misses it is reported and abandoned; teardown never hangs on it.
const joinTimeout = 3 * time.Second

// RunWorker wires the pipeline together and supervises it until a
// termination signal arrives. A missing camera is the one fatal startup
// condition; a missing receiver just means photos without positioning.
func RunWorker(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	cam, err := camera.Open(cfg.CameraCommand, cfg.CameraWidth, cfg.CameraHeight, cfg.JPEGQuality)
	if err != nil {
		return fmt.Errorf("camera unavailable: %w", err)
	}
	log.Printf("camera: ready (%dx%d, quality %d)", cfg.CameraWidth, cfg.CameraHeight, cfg.JPEGQuality)

	recv := openReceiver(cfg)
	reg := gps.NewRegistry()

	var tel *Telemetry
	if cfg.MQTTBroker != "" {
		tel, err = NewTelemetry(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicFix, cfg.TopicCapture)
		if err != nil {
			log.Printf("telemetry: broker unreachable, continuing without: %v", err)
			tel = nil
		}
	}

	var disp *StatusDisplay
	if cfg.DisplayEnabled {
		disp, err = NewStatusDisplay(cfg.DisplayI2CBus, reg, time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond)
		if err != nil {
			log.Printf("display: unavailable, continuing without: %v", err)
			disp = nil
		}
	}

	capLoop := NewCaptureLoop(cam, reg, time.Duration(cfg.CaptureInterval)*time.Second, cfg.OutputDir)
	capLoop.onCapture = func(ev CaptureEvent) {
		if tel != nil {
			tel.PublishCapture(ev)
		}
		if disp != nil {
			disp.NoteCapture(ev)
		}
	}

	var posLoop *PositionLoop
	if recv != nil {
		posLoop = NewPositionLoop(recv, reg,
			time.Duration(cfg.GPSPollInterval)*time.Millisecond,
			time.Duration(cfg.FixStaleSeconds)*time.Second)
		if tel != nil {
			posLoop.onFix = tel.PublishFix
		}
		posLoop.Start()
	}
	capLoop.Start()
	if disp != nil {
		disp.Start()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("worker: received %v, shutting down", sig)

	if posLoop != nil {
		posLoop.Stop()
	}
	capLoop.Stop()

	if posLoop != nil && !posLoop.Join(joinTimeout) {
		log.Printf("worker: gps loop did not stop within %v", joinTimeout)
	}
	if capLoop.Join(joinTimeout) {
		// the camera handle is released only once no capture can be in flight
		cam.Close()
	} else {
		log.Printf("worker: capture loop did not stop within %v, leaving camera handle open", joinTimeout)
	}

	if recv != nil {
		if err := recv.Close(); err != nil {
			log.Printf("gps: receiver close error: %v", err)
		}
	}
	if disp != nil {
		disp.Stop()
	}
	if tel != nil {
		tel.Close()
	}

	log.Println("worker: shutdown complete")
	return nil
}

// openReceiver resolves the configured positioning interface. nil means
// the pipeline runs in no-positioning mode.
func openReceiver(cfg *config.Config) gps.Receiver {
	var (
		recv gps.Receiver
		err  error
	)

	switch cfg.GPSInterface {
	case "serial":
		recv, err = gps.NewSerialReceiver(cfg.GPSSerialPort, uint(cfg.GPSBaudRate))
	case "i2c":
		recv, err = gps.NewI2CReceiver(cfg.GPSI2CBus, cfg.GPSI2CAddr)
	case "off":
		log.Println("gps: disabled by configuration")
		return nil
	}

	if err != nil {
		log.Printf("gps: receiver unavailable, running without positioning: %v", err)
		return nil
	}
	log.Printf("gps: receiver open (%s)", cfg.GPSInterface)
	return recv
}
