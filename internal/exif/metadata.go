package exif

import (
	"fmt"
	"time"

	"github.com/justingeeslin/opensensecam/internal/gps"
)

// Device identity stamped into every photo.
const (
	DeviceMake  = "Raspberry Pi"
	DeviceModel = "Camera Module 3"
	Software    = "OpenSenseCam Worker"

	// userCommentPayload identifies the project in the UserComment tag.
	userCommentPayload = `{"project":"OpenSenseCam"}`

	// altitudeDenominator bounds the altitude rational; meters do not need
	// sub-millimeter precision.
	altitudeDenominator = 1000
)

// Metadata is the full geotag block embedded into a captured JPEG: the
// image-info group is always present, the positioning group only when a fix
// snapshot existed at capture time.
type Metadata struct {
	CaptureTime time.Time
	Make        string
	Model       string
	Software    string
	Comment     string
	GPS         *GPSInfo
}

// GPSInfo mirrors the EXIF GPS IFD fields the worker writes.
type GPSInfo struct {
	LatitudeRef  string // "N" or "S"
	Latitude     [3]Rational
	LongitudeRef string // "E" or "W"
	Longitude    [3]Rational

	AltitudeRef byte // 0 above reference, 1 below
	Altitude    Rational
	HasAltitude bool

	// Receiver-reported UTC time of the fix. Omitted when the receiver
	// supplied none; the capture wall clock is never substituted.
	TimeStamp    [3]Rational
	DateStamp    string // "YYYY:MM:DD"
	HasTimeStamp bool
}

// Build assembles the geotag for one capture. fix may be nil: the photo is
// then stamped with time-only metadata, which is not an error. No minimum
// quality is enforced here; a quality-0 fix with populated coordinates
// still encodes.
func Build(captureTime time.Time, fix *gps.Fix) *Metadata {
	m := &Metadata{
		CaptureTime: captureTime,
		Make:        DeviceMake,
		Model:       DeviceModel,
		Software:    Software,
		Comment:     userCommentPayload,
	}

	if fix == nil {
		return m
	}

	g := &GPSInfo{
		LatitudeRef:  hemisphere(fix.Latitude, "N", "S"),
		LongitudeRef: hemisphere(fix.Longitude, "E", "W"),
	}
	g.Latitude[0], g.Latitude[1], g.Latitude[2] = DegreesToDMS(fix.Latitude)
	g.Longitude[0], g.Longitude[1], g.Longitude[2] = DegreesToDMS(fix.Longitude)

	if fix.HasAlt {
		if fix.Altitude < 0 {
			g.AltitudeRef = 1
		}
		g.Altitude = rat(fix.Altitude, altitudeDenominator)
		g.HasAltitude = true
	}

	if fix.HasTime {
		utc := fix.Time.UTC()
		g.TimeStamp[0] = rat(float64(utc.Hour()), 1)
		g.TimeStamp[1] = rat(float64(utc.Minute()), 1)
		g.TimeStamp[2] = rat(float64(utc.Second()), 1)
		g.DateStamp = fmt.Sprintf("%04d:%02d:%02d", utc.Year(), utc.Month(), utc.Day())
		g.HasTimeStamp = true
	}

	m.GPS = g
	return m
}

func hemisphere(v float64, pos, neg string) string {
	if v < 0 {
		return neg
	}
	return pos
}
