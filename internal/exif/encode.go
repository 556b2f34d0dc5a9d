package exif

import "encoding/binary"

// TIFF field types used by the tags the worker writes.
const (
	typeByte      = 1
	typeASCII     = 2
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
)

// 0th IFD tags
const (
	tagMake       = 0x010F
	tagModel      = 0x0110
	tagSoftware   = 0x0131
	tagDateTime   = 0x0132
	tagExifIFDPtr = 0x8769
	tagGPSIFDPtr  = 0x8825
)

// Exif IFD tags
const (
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
	tagUserComment       = 0x9286
)

// GPS IFD tags
const (
	gpsTagVersionID    = 0x0000
	gpsTagLatitudeRef  = 0x0001
	gpsTagLatitude     = 0x0002
	gpsTagLongitudeRef = 0x0003
	gpsTagLongitude    = 0x0004
	gpsTagAltitudeRef  = 0x0005
	gpsTagAltitude     = 0x0006
	gpsTagTimeStamp    = 0x0007
	gpsTagDateStamp    = 0x001D
)

const (
	exifHeader     = "Exif\x00\x00"
	markerAPP1     = 0xE1
	dateTimeLayout = "2006:01:02 15:04:05"
)

// userCommentPrefix is the 8-byte character set code preceding the comment text.
var userCommentPrefix = []byte("ASCII\x00\x00\x00")

// entry is one 12-byte IFD directory entry plus its unpadded payload bytes.
type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

func asciiEntry(tag uint16, s string) entry {
	v := append([]byte(s), 0)
	return entry{tag: tag, typ: typeASCII, count: uint32(len(v)), value: v}
}

func longEntry(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, value: b}
}

func byteEntry(tag uint16, b ...byte) entry {
	return entry{tag: tag, typ: typeByte, count: uint32(len(b)), value: b}
}

func undefinedEntry(tag uint16, b []byte) entry {
	return entry{tag: tag, typ: typeUndefined, count: uint32(len(b)), value: b}
}

func rationalEntry(tag uint16, rs ...Rational) entry {
	b := make([]byte, 0, 8*len(rs))
	for _, r := range rs {
		b = binary.BigEndian.AppendUint32(b, r.Num)
		b = binary.BigEndian.AppendUint32(b, r.Den)
	}
	return entry{tag: tag, typ: typeRational, count: uint32(len(rs)), value: b}
}

// EncodeAPP1 serializes the metadata as a complete JPEG APP1 segment:
// marker, length, "Exif\0\0", and a big-endian TIFF payload with the 0th,
// Exif, and (when positioning data exists) GPS IFDs.
func (m *Metadata) EncodeAPP1() []byte {
	tiff := m.encodeTIFF()

	seg := make([]byte, 4, 4+len(exifHeader)+len(tiff))
	seg[0] = 0xFF
	seg[1] = markerAPP1
	binary.BigEndian.PutUint16(seg[2:4], uint16(2+len(exifHeader)+len(tiff)))
	seg = append(seg, exifHeader...)
	return append(seg, tiff...)
}

func (m *Metadata) encodeTIFF() []byte {
	dt := m.CaptureTime.Format(dateTimeLayout)

	ifd0 := []entry{
		asciiEntry(tagMake, m.Make),
		asciiEntry(tagModel, m.Model),
		asciiEntry(tagSoftware, m.Software),
		asciiEntry(tagDateTime, dt),
		longEntry(tagExifIFDPtr, 0), // patched once the layout is known
	}

	exifIFD := []entry{
		asciiEntry(tagDateTimeOriginal, dt),
		asciiEntry(tagDateTimeDigitized, dt),
		undefinedEntry(tagUserComment, append(append([]byte{}, userCommentPrefix...), m.Comment...)),
	}

	var gpsIFD []entry
	if g := m.GPS; g != nil {
		gpsIFD = []entry{
			byteEntry(gpsTagVersionID, 2, 3, 0, 0),
			asciiEntry(gpsTagLatitudeRef, g.LatitudeRef),
			rationalEntry(gpsTagLatitude, g.Latitude[0], g.Latitude[1], g.Latitude[2]),
			asciiEntry(gpsTagLongitudeRef, g.LongitudeRef),
			rationalEntry(gpsTagLongitude, g.Longitude[0], g.Longitude[1], g.Longitude[2]),
		}
		if g.HasAltitude {
			gpsIFD = append(gpsIFD,
				byteEntry(gpsTagAltitudeRef, g.AltitudeRef),
				rationalEntry(gpsTagAltitude, g.Altitude),
			)
		}
		if g.HasTimeStamp {
			gpsIFD = append(gpsIFD,
				rationalEntry(gpsTagTimeStamp, g.TimeStamp[0], g.TimeStamp[1], g.TimeStamp[2]),
				asciiEntry(gpsTagDateStamp, g.DateStamp),
			)
		}
		ifd0 = append(ifd0, longEntry(tagGPSIFDPtr, 0))
	}

	// Fixed layout: header, 0th IFD + its data, Exif IFD + its data, GPS
	// IFD + its data. Pointer tags are patched with the computed offsets.
	const offIFD0 = uint32(8)
	offExif := offIFD0 + ifdLen(ifd0)
	offGPS := offExif + ifdLen(exifIFD)

	patchLong(ifd0, tagExifIFDPtr, offExif)
	if gpsIFD != nil {
		patchLong(ifd0, tagGPSIFDPtr, offGPS)
	}

	buf := make([]byte, 0, int(offGPS)+int(ifdLen(gpsIFD)))
	buf = append(buf, 'M', 'M') // big-endian byte order mark
	buf = binary.BigEndian.AppendUint16(buf, 0x002A)
	buf = binary.BigEndian.AppendUint32(buf, offIFD0)

	buf = appendIFD(buf, ifd0, offIFD0)
	buf = appendIFD(buf, exifIFD, offExif)
	if gpsIFD != nil {
		buf = appendIFD(buf, gpsIFD, offGPS)
	}
	return buf
}

// ifdLen is the serialized size of an IFD: entry table, next-IFD offset,
// and the out-of-line values (each padded to an even boundary).
func ifdLen(entries []entry) uint32 {
	n := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.value) > 4 {
			n += uint32(len(e.value) + len(e.value)%2)
		}
	}
	return n
}

// appendIFD serializes one IFD at its known offset from the TIFF header.
// Values longer than four bytes go to a data area directly after the table.
func appendIFD(buf []byte, entries []entry, base uint32) []byte {
	extOff := base + uint32(2+12*len(entries)+4)
	var ext []byte

	buf = binary.BigEndian.AppendUint16(buf, uint16(len(entries)))
	for _, e := range entries {
		buf = binary.BigEndian.AppendUint16(buf, e.tag)
		buf = binary.BigEndian.AppendUint16(buf, e.typ)
		buf = binary.BigEndian.AppendUint32(buf, e.count)

		if len(e.value) <= 4 {
			var inline [4]byte
			copy(inline[:], e.value)
			buf = append(buf, inline[:]...)
			continue
		}

		buf = binary.BigEndian.AppendUint32(buf, extOff+uint32(len(ext)))
		ext = append(ext, e.value...)
		if len(e.value)%2 != 0 {
			ext = append(ext, 0)
		}
	}
	buf = binary.BigEndian.AppendUint32(buf, 0) // no next IFD
	return append(buf, ext...)
}

// patchLong rewrites the payload of a LONG entry in place.
func patchLong(entries []entry, tag uint16, v uint32) {
	for i := range entries {
		if entries[i].tag == tag {
			binary.BigEndian.PutUint32(entries[i].value, v)
			return
		}
	}
}
