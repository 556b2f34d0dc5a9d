package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Camera is the capture hardware boundary: one JPEG frame per call.
type Camera interface {
	Capture() ([]byte, error)
	Close() error
}

// captureTimeout bounds one still capture, driver warm-up included.
const captureTimeout = 15 * time.Second

// stillCommands are tried in order when no command is configured. Newer
// Raspberry Pi OS ships rpicam-still, older releases libcamera-still.
var stillCommands = []string{"rpicam-still", "libcamera-still"}

// StillCamera captures JPEG frames by shelling out to the libcamera still
// tool, the camera stack the Pi camera modules speak.
type StillCamera struct {
	bin     string
	width   int
	height  int
	quality int
}

// Open resolves the capture command and returns the camera handle. An
// error here means no camera stack is present, which the supervisor treats
// as fatal.
func Open(command string, width, height, quality int) (*StillCamera, error) {
	candidates := stillCommands
	if command != "" {
		candidates = []string{command}
	}

	var bin string
	for _, c := range candidates {
		p, err := exec.LookPath(c)
		if err == nil {
			bin = p
			break
		}
	}
	if bin == "" {
		return nil, fmt.Errorf("no capture command found (tried %s)", strings.Join(candidates, ", "))
	}

	return &StillCamera{
		bin:     bin,
		width:   width,
		height:  height,
		quality: quality,
	}, nil
}

// Capture takes one still frame and returns the raw JPEG bytes.
func (c *StillCamera) Capture() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), captureTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin,
		"--output", "-",
		"--width", strconv.Itoa(c.width),
		"--height", strconv.Itoa(c.height),
		"--quality", strconv.Itoa(c.quality),
		"--immediate",
		"--nopreview",
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w (%s)", c.bin, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", c.bin, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("%s produced no image data", c.bin)
	}
	return out.Bytes(), nil
}

func (c *StillCamera) Close() error {
	return nil // the still tool holds the device only while running
}
