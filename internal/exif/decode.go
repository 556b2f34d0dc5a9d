package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrNoMetadata is returned when a JPEG carries no Exif APP1 segment.
var ErrNoMetadata = errors.New("exif: no embedded metadata")

// Decode parses the embedded metadata block back out of a JPEG. Both TIFF
// byte orders are accepted. Fields the worker does not write are ignored.
func Decode(jpg []byte) (*Metadata, error) {
	payload, err := findAPP1(jpg)
	if err != nil {
		return nil, err
	}
	return decodeTIFF(payload)
}

// findAPP1 walks the JPEG segment chain up to SOS and returns the TIFF
// payload of the first Exif APP1 segment.
func findAPP1(b []byte) ([]byte, error) {
	if len(b) < 2 || b[0] != 0xFF || b[1] != 0xD8 {
		return nil, errors.New("exif: not a JPEG")
	}

	i := 2
	for i+4 <= len(b) {
		if b[i] != 0xFF {
			return nil, fmt.Errorf("exif: bad marker byte 0x%02X at offset %d", b[i], i)
		}
		marker := b[i+1]

		// standalone markers carry no length field
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xDA || marker == 0xD9 { // SOS or EOI: no more headers
			break
		}

		length := int(binary.BigEndian.Uint16(b[i+2 : i+4]))
		if length < 2 || i+2+length > len(b) {
			return nil, errors.New("exif: truncated segment")
		}
		seg := b[i+4 : i+2+length]
		if marker == markerAPP1 && len(seg) >= len(exifHeader) &&
			string(seg[:len(exifHeader)]) == exifHeader {
			return seg[len(exifHeader):], nil
		}
		i += 2 + length
	}
	return nil, ErrNoMetadata
}

type field struct {
	typ   uint16
	count uint32
	data  []byte
}

type ifd map[uint16]field

type tiffReader struct {
	data []byte
	bo   binary.ByteOrder
}

func decodeTIFF(t []byte) (*Metadata, error) {
	if len(t) < 8 {
		return nil, errors.New("exif: short TIFF payload")
	}

	r := &tiffReader{data: t}
	switch {
	case t[0] == 'M' && t[1] == 'M':
		r.bo = binary.BigEndian
	case t[0] == 'I' && t[1] == 'I':
		r.bo = binary.LittleEndian
	default:
		return nil, errors.New("exif: bad byte order mark")
	}
	if r.bo.Uint16(t[2:4]) != 0x002A {
		return nil, errors.New("exif: bad TIFF magic")
	}

	ifd0, err := r.readIFD(r.bo.Uint32(t[4:8]))
	if err != nil {
		return nil, err
	}

	m := &Metadata{
		Make:     ifd0.str(tagMake),
		Model:    ifd0.str(tagModel),
		Software: ifd0.str(tagSoftware),
	}
	if s := ifd0.str(tagDateTime); s != "" {
		if ts, err := time.ParseInLocation(dateTimeLayout, s, time.Local); err == nil {
			m.CaptureTime = ts
		}
	}

	if off, ok := r.long(ifd0, tagExifIFDPtr); ok {
		exifIFD, err := r.readIFD(off)
		if err != nil {
			return nil, err
		}
		if f, ok := exifIFD[tagUserComment]; ok {
			m.Comment = string(bytes.TrimPrefix(f.data, userCommentPrefix))
		}
	}

	if off, ok := r.long(ifd0, tagGPSIFDPtr); ok {
		gpsIFD, err := r.readIFD(off)
		if err != nil {
			return nil, err
		}
		m.GPS = r.decodeGPS(gpsIFD)
	}

	return m, nil
}

func (r *tiffReader) decodeGPS(d ifd) *GPSInfo {
	g := &GPSInfo{
		LatitudeRef:  d.str(gpsTagLatitudeRef),
		LongitudeRef: d.str(gpsTagLongitudeRef),
	}
	if v := r.rationals(d, gpsTagLatitude); len(v) == 3 {
		copy(g.Latitude[:], v)
	}
	if v := r.rationals(d, gpsTagLongitude); len(v) == 3 {
		copy(g.Longitude[:], v)
	}
	if v := r.rationals(d, gpsTagAltitude); len(v) == 1 {
		g.Altitude = v[0]
		g.HasAltitude = true
		if f, ok := d[gpsTagAltitudeRef]; ok && len(f.data) > 0 {
			g.AltitudeRef = f.data[0]
		}
	}
	if v := r.rationals(d, gpsTagTimeStamp); len(v) == 3 {
		copy(g.TimeStamp[:], v)
		g.DateStamp = d.str(gpsTagDateStamp)
		g.HasTimeStamp = true
	}
	return g
}

func (r *tiffReader) readIFD(off uint32) (ifd, error) {
	t := r.data
	if int64(off)+2 > int64(len(t)) {
		return nil, errors.New("exif: IFD offset out of range")
	}
	n := int(r.bo.Uint16(t[off:]))
	base := int(off) + 2
	if base+12*n+4 > len(t) {
		return nil, errors.New("exif: truncated IFD")
	}

	out := make(ifd, n)
	for i := 0; i < n; i++ {
		e := t[base+12*i:]
		tag := r.bo.Uint16(e)
		typ := r.bo.Uint16(e[2:])
		count := r.bo.Uint32(e[4:])

		unit := typeSize(typ)
		if unit == 0 {
			continue // type this reader does not handle
		}
		size := int64(unit) * int64(count)

		var data []byte
		if size <= 4 {
			data = e[8 : 8+size]
		} else {
			vo := int64(r.bo.Uint32(e[8:]))
			if vo+size > int64(len(t)) {
				return nil, errors.New("exif: value offset out of range")
			}
			data = t[vo : vo+size]
		}
		out[tag] = field{typ: typ, count: count, data: data}
	}
	return out, nil
}

func (r *tiffReader) rationals(d ifd, tag uint16) []Rational {
	f, ok := d[tag]
	if !ok || f.typ != typeRational || len(f.data) < 8*int(f.count) {
		return nil
	}
	out := make([]Rational, f.count)
	for i := range out {
		out[i] = Rational{
			Num: r.bo.Uint32(f.data[8*i:]),
			Den: r.bo.Uint32(f.data[8*i+4:]),
		}
	}
	return out
}

func (d ifd) str(tag uint16) string {
	f, ok := d[tag]
	if !ok || f.typ != typeASCII {
		return ""
	}
	return string(bytes.TrimRight(f.data, "\x00"))
}

func (r *tiffReader) long(d ifd, tag uint16) (uint32, bool) {
	f, ok := d[tag]
	if !ok || f.typ != typeLong || len(f.data) < 4 {
		return 0, false
	}
	return r.bo.Uint32(f.data), true
}

func typeSize(typ uint16) int {
	switch typ {
	case typeByte, typeASCII, typeUndefined:
		return 1
	case typeLong:
		return 4
	case typeRational:
		return 8
	default:
		return 0
	}
}
