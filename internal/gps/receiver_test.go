package gps

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"testing"
)

// sentence frames an NMEA body with its checksum, so test data stays
// readable and never rots when a field changes.
func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", body, sum)
}

func receiverFor(lines ...string) Receiver {
	return NewNMEAReceiver(io.NopCloser(bytes.NewReader([]byte(strings.Join(lines, "")))))
}

func TestReceiverDecodesGGA(t *testing.T) {
	r := receiverFor(
		sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
	)

	advanced, err := r.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !advanced {
		t.Fatal("expected the GGA sentence to advance the position state")
	}
	if !r.HasFix() {
		t.Fatal("quality 1 must count as a fix")
	}

	fix := r.Fix()
	if math.Abs(fix.Latitude-48.1173) > 1e-4 {
		t.Errorf("latitude = %v, want ~48.1173", fix.Latitude)
	}
	if math.Abs(fix.Longitude-11.5167) > 1e-4 {
		t.Errorf("longitude = %v, want ~11.5167", fix.Longitude)
	}
	if fix.Quality != 1 {
		t.Errorf("quality = %d, want 1", fix.Quality)
	}
	if fix.Satellites != 8 {
		t.Errorf("satellites = %d, want 8", fix.Satellites)
	}
	if !fix.HasAlt || math.Abs(fix.Altitude-545.4) > 1e-6 {
		t.Errorf("altitude = %v (has=%v), want 545.4", fix.Altitude, fix.HasAlt)
	}
	if !fix.HasTime {
		t.Error("GGA carries a time of day; Fix must report one")
	}
	if h, m, s := fix.Time.Clock(); h != 12 || m != 35 || s != 19 {
		t.Errorf("fix time = %02d:%02d:%02d, want 12:35:19", h, m, s)
	}
}

func TestReceiverMergesRMCDate(t *testing.T) {
	r := receiverFor(
		sentence("GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230324,003.1,W"),
		sentence("GPGGA,123520,4807.038,N,01131.000,E,2,09,0.9,545.4,M,46.9,M,,"),
	)

	if _, err := r.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	fix := r.Fix()
	if fix.Quality != 2 {
		t.Errorf("quality = %d, want 2 from the GGA", fix.Quality)
	}
	y, mo, d := fix.Time.Date()
	if y != 2024 || mo != 3 || d != 23 {
		t.Errorf("fix date = %04d-%02d-%02d, want 2024-03-23 from the RMC", y, mo, d)
	}
}

func TestReceiverNoFix(t *testing.T) {
	r := receiverFor(
		sentence("GPGGA,002314.00,,,,,0,00,99.99,,,,,,"),
	)

	if _, err := r.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.HasFix() {
		t.Error("quality 0 with void RMC state must not report a fix")
	}
}

func TestReceiverSkipsJunk(t *testing.T) {
	r := receiverFor(
		"\n\n\n",                      // idle I2C padding
		"garbage without a dollar\n",  // line noise
		"$GPGGA,broken,checksum*00\n", // parse failure
		sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
	)

	if _, err := r.Update(); err != nil {
		t.Fatalf("junk before a valid sentence must not error: %v", err)
	}
	if !r.HasFix() {
		t.Error("valid sentence after junk must still be decoded")
	}
}

func TestReceiverDrainedTransport(t *testing.T) {
	r := receiverFor()

	advanced, err := r.Update()
	if err != nil {
		t.Fatalf("a drained transport is not an error, got %v", err)
	}
	if advanced {
		t.Error("no data must mean no advance")
	}
	if r.HasFix() {
		t.Error("no data must mean no fix")
	}
}

func TestReceiverBoundsWorkPerUpdate(t *testing.T) {
	var lines []string
	for i := 0; i < 3*maxSentencesPerUpdate; i++ {
		lines = append(lines, sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"))
	}
	r := receiverFor(lines...)

	// the backlog takes several Update calls to drain; each one is bounded
	for i := 0; i < 3; i++ {
		if advanced, err := r.Update(); err != nil || !advanced {
			t.Fatalf("Update #%d = (%v, %v), want progress", i, advanced, err)
		}
	}
}
