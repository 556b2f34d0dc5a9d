package exif

import (
	"bytes"
	"testing"
	"time"

	"github.com/justingeeslin/opensensecam/internal/gps"
)

// minimal JPEG: SOI, one APP0 stub, EOI
func fakeFrame() []byte {
	return []byte{
		0xFF, 0xD8, // SOI
		0xFF, 0xE0, 0x00, 0x04, 0x4A, 0x46, // APP0, length 4
		0xFF, 0xD9, // EOI
	}
}

func testFix() *gps.Fix {
	return &gps.Fix{
		Latitude:   51.5074,
		Longitude:  -0.1278,
		Altitude:   35.5,
		HasAlt:     true,
		Quality:    4,
		Satellites: 9,
		Time:       time.Date(2025, 6, 14, 9, 30, 15, 0, time.UTC),
		HasTime:    true,
	}
}

func TestBuildWithoutFix(t *testing.T) {
	ts := time.Date(2025, 6, 14, 10, 30, 0, 0, time.Local)
	m := Build(ts, nil)

	if m.GPS != nil {
		t.Fatal("metadata without a fix must not carry a positioning group")
	}
	if m.Make == "" || m.Model == "" || m.Software == "" {
		t.Error("image-info group must always be populated")
	}

	// serialize and re-parse: must not fail and must stay positioning-free
	tagged, err := EmbedJPEG(fakeFrame(), m)
	if err != nil {
		t.Fatalf("EmbedJPEG: %v", err)
	}
	back, err := Decode(tagged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.GPS != nil {
		t.Error("re-parsed metadata reports positioning fields that were never written")
	}
	if back.Make != DeviceMake || back.Model != DeviceModel || back.Software != Software {
		t.Errorf("image-info mismatch after round trip: %q %q %q", back.Make, back.Model, back.Software)
	}
	if !back.CaptureTime.Equal(ts) {
		t.Errorf("capture time = %v, want %v", back.CaptureTime, ts)
	}
}

func TestBuildWithFix(t *testing.T) {
	ts := time.Date(2025, 6, 14, 10, 30, 0, 0, time.Local)
	fix := testFix()
	m := Build(ts, fix)

	tagged, err := EmbedJPEG(fakeFrame(), m)
	if err != nil {
		t.Fatalf("EmbedJPEG: %v", err)
	}
	back, err := Decode(tagged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	g := back.GPS
	if g == nil {
		t.Fatal("positioning group missing after round trip")
	}
	if g.LatitudeRef != "N" || g.LongitudeRef != "W" {
		t.Errorf("hemisphere refs = %q/%q, want N/W", g.LatitudeRef, g.LongitudeRef)
	}

	wantLatD, wantLatM, wantLatS := DegreesToDMS(fix.Latitude)
	if g.Latitude[0] != wantLatD || g.Latitude[1] != wantLatM || g.Latitude[2] != wantLatS {
		t.Errorf("latitude DMS = %v, want %v", g.Latitude, [3]Rational{wantLatD, wantLatM, wantLatS})
	}

	if !g.HasAltitude || g.AltitudeRef != 0 {
		t.Errorf("altitude missing or mis-referenced: has=%v ref=%d", g.HasAltitude, g.AltitudeRef)
	}
	if got := g.Altitude.Float(); got < 35.49 || got > 35.51 {
		t.Errorf("altitude = %v, want ~35.5", got)
	}

	if !g.HasTimeStamp {
		t.Fatal("fix carried a UTC time but the tag has none")
	}
	if g.DateStamp != "2025:06:14" {
		t.Errorf("date stamp = %q, want 2025:06:14", g.DateStamp)
	}
	if g.TimeStamp[0].Float() != 9 || g.TimeStamp[1].Float() != 30 || g.TimeStamp[2].Float() != 15 {
		t.Errorf("time stamp = %v, want 9:30:15", g.TimeStamp)
	}
}

func TestBuildBelowSeaLevel(t *testing.T) {
	fix := testFix()
	fix.Altitude = -12.25

	m := Build(time.Now(), fix)
	if m.GPS.AltitudeRef != 1 {
		t.Errorf("negative altitude must set reference flag 1, got %d", m.GPS.AltitudeRef)
	}
	if got := m.GPS.Altitude.Float(); got < 12.24 || got > 12.26 {
		t.Errorf("altitude magnitude = %v, want ~12.25", got)
	}
}

func TestBuildNoFixQualityStillEncodes(t *testing.T) {
	fix := testFix()
	fix.Quality = 0

	m := Build(time.Now(), fix)
	if m.GPS == nil {
		t.Fatal("quality 0 with populated coordinates must still build a positioning group")
	}
	if _, err := EmbedJPEG(fakeFrame(), m); err != nil {
		t.Fatalf("EmbedJPEG: %v", err)
	}
}

func TestBuildOmitsUnreportedFixTime(t *testing.T) {
	fix := testFix()
	fix.HasTime = false

	m := Build(time.Now(), fix)
	tagged, err := EmbedJPEG(fakeFrame(), m)
	if err != nil {
		t.Fatalf("EmbedJPEG: %v", err)
	}
	back, err := Decode(tagged)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.GPS.HasTimeStamp {
		t.Error("positioning timestamp present though the receiver reported none")
	}
}

func TestEmbedJPEGRejectsNonJPEG(t *testing.T) {
	if _, err := EmbedJPEG([]byte("not a jpeg"), Build(time.Now(), nil)); err == nil {
		t.Error("expected an error for a non-JPEG frame")
	}
}

func TestEmbedJPEGKeepsFrameBytes(t *testing.T) {
	frame := fakeFrame()
	tagged, err := EmbedJPEG(frame, Build(time.Now(), nil))
	if err != nil {
		t.Fatalf("EmbedJPEG: %v", err)
	}
	if !bytes.HasSuffix(tagged, []byte{0xFF, 0xD9}) {
		t.Error("frame tail lost during embed")
	}
	if !bytes.Contains(tagged, frame[2:8]) {
		t.Error("non-Exif segments must be kept verbatim")
	}
}

func TestEmbedJPEGReplacesExistingTag(t *testing.T) {
	first, err := EmbedJPEG(fakeFrame(), Build(time.Now(), nil))
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}

	second, err := EmbedJPEG(first, Build(time.Now(), testFix()))
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}

	if n := bytes.Count(second, []byte(exifHeader)); n != 1 {
		t.Errorf("tagged file carries %d Exif blocks, want exactly 1", n)
	}
	back, err := Decode(second)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back.GPS == nil {
		t.Error("decode found the stale tag instead of the replacement")
	}
}

func TestDecodeWithoutMetadata(t *testing.T) {
	if _, err := Decode(fakeFrame()); err != ErrNoMetadata {
		t.Errorf("Decode of untagged JPEG = %v, want ErrNoMetadata", err)
	}
}
