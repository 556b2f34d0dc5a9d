package gps

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// Receiver is the positioning hardware boundary. Update decodes whatever
// sentences the transport has buffered (bounded work, may block up to the
// transport's own read timeout) and reports whether the position state
// advanced. HasFix and Fix expose the merged state of the last sentences.
type Receiver interface {
	Update() (bool, error)
	HasFix() bool
	Fix() Fix
	Close() error
}

// maxSentencesPerUpdate bounds how many lines one Update call drains, so a
// backlogged transport cannot stall the sampling loop indefinitely.
const maxSentencesPerUpdate = 16

// nmeaReceiver merges GGA (quality, satellites, altitude, time of day) and
// RMC (date, validity) into one current fix, the same way the GPS producer
// merges sentence types.
type nmeaReceiver struct {
	r      *bufio.Reader
	closer io.Closer

	lat, lon float64
	alt      float64
	hasAlt   bool
	quality  int
	sats     int
	rmcValid bool

	tod     nmea.Time
	hasTOD  bool
	date    nmea.Date
	hasDate bool
}

// NewNMEAReceiver wraps any NMEA byte stream (serial port, I2C module,
// replay file) in a Receiver.
func NewNMEAReceiver(rc io.ReadCloser) Receiver {
	return &nmeaReceiver{
		r:      bufio.NewReader(rc),
		closer: rc,
	}
}

// NewSerialReceiver opens a UART-attached receiver. The inter-character
// timeout bounds how long a read can block when the module goes quiet.
func NewSerialReceiver(port string, baud uint) (Receiver, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 500,
	}

	p, err := serial.Open(opts)
	if err != nil {
		return nil, err
	}
	return NewNMEAReceiver(p), nil
}

func (g *nmeaReceiver) Update() (bool, error) {
	advanced := false

	for i := 0; i < maxSentencesPerUpdate; i++ {
		line, err := g.r.ReadString('\n')
		if err != nil {
			// A timed-out or drained transport is not a failure; report
			// whatever progress this call made. Anything already read
			// before the error has been consumed from the buffer.
			if err == io.EOF {
				return advanced, nil
			}
			return advanced, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// NMEA sentences start with '$'; I2C modules pad idle reads with
		// newlines and partial junk, so anything else is skipped.
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy module or partial sentence; skip it
			continue
		}

		switch sentence.DataType() {
		case nmea.TypeGGA:
			m := sentence.(nmea.GGA)

			g.quality = fixQuality(m.FixQuality)
			g.sats = int(m.NumSatellites)
			if g.quality > 0 {
				g.lat = m.Latitude
				g.lon = m.Longitude
				g.alt = m.Altitude
				g.hasAlt = true
			}
			if m.Time.Valid {
				g.tod = m.Time
				g.hasTOD = true
			}
			advanced = true

		case nmea.TypeRMC:
			m := sentence.(nmea.RMC)

			g.rmcValid = m.Validity == nmea.ValidRMC
			if g.rmcValid {
				g.lat = m.Latitude
				g.lon = m.Longitude
			}
			if m.Time.Valid {
				g.tod = m.Time
				g.hasTOD = true
			}
			if m.Date.Valid {
				g.date = m.Date
				g.hasDate = true
			}
			advanced = true

		default:
			// GSA, GSV, VTG and friends carry nothing we stamp into photos
		}
	}

	return advanced, nil
}

func (g *nmeaReceiver) HasFix() bool {
	return g.quality > 0 || g.rmcValid
}

func (g *nmeaReceiver) Fix() Fix {
	f := Fix{
		Latitude:   g.lat,
		Longitude:  g.lon,
		Altitude:   g.alt,
		HasAlt:     g.hasAlt,
		Quality:    g.quality,
		Satellites: g.sats,
	}
	if g.hasTOD {
		f.Time = g.utcTime()
		f.HasTime = true
	}
	return f
}

func (g *nmeaReceiver) Close() error {
	return g.closer.Close()
}

// utcTime assembles the receiver-reported UTC timestamp. GGA carries only a
// time of day, so when no RMC date has been seen the current UTC date is
// used, matching how the module's own time of day is interpreted.
func (g *nmeaReceiver) utcTime() time.Time {
	var y, mo, d int
	if g.hasDate {
		y = 2000 + g.date.YY
		mo = g.date.MM
		d = g.date.DD
	} else {
		now := time.Now().UTC()
		y, mo, d = now.Year(), int(now.Month()), now.Day()
	}
	return time.Date(y, time.Month(mo), d, g.tod.Hour, g.tod.Minute, g.tod.Second,
		g.tod.Millisecond*int(time.Millisecond), time.UTC)
}

// fixQuality maps the GGA fix quality field to its ordered integer code
// (0 = invalid, 1 = GPS, 2 = DGPS, 4 = RTK, ...).
func fixQuality(q string) int {
	n, err := strconv.Atoi(q)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
