package exif

import (
	"encoding/binary"
	"errors"
)

// EmbedJPEG returns a copy of frame with the metadata inserted as an APP1
// segment right after SOI. Any Exif APP1 the camera already wrote is
// dropped so the file carries exactly one geotag block. The frame bytes
// themselves are never re-encoded.
func EmbedJPEG(frame []byte, m *Metadata) ([]byte, error) {
	if len(frame) < 2 || frame[0] != 0xFF || frame[1] != 0xD8 {
		return nil, errors.New("exif: frame is not a JPEG")
	}

	app1 := m.EncodeAPP1()
	out := make([]byte, 0, len(frame)+len(app1))
	out = append(out, frame[:2]...)
	out = append(out, app1...)

	i := 2
	for i+4 <= len(frame) && frame[i] == 0xFF {
		marker := frame[i+1]
		if marker == 0xDA || marker == 0xD9 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			break
		}
		length := int(binary.BigEndian.Uint16(frame[i+2 : i+4]))
		if length < 2 || i+2+length > len(frame) {
			break // malformed header segment; keep the rest verbatim
		}
		seg := frame[i+4 : i+2+length]
		if marker == markerAPP1 && len(seg) >= len(exifHeader) &&
			string(seg[:len(exifHeader)]) == exifHeader {
			i += 2 + length // skip the camera's own Exif block
			continue
		}
		out = append(out, frame[i:i+2+length]...)
		i += 2 + length
	}

	return append(out, frame[i:]...), nil
}
