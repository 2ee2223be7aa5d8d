// Package imagemeta derives pixel dimensions from encoded image bytes by
// reading format-specific headers. It never decodes pixel data and never
// panics: any malformed or truncated buffer yields a nil result.
package imagemeta

import (
	"bytes"
	"encoding/binary"
	"image/jpeg"
	"strings"
)

// Dimensions holds the pixel size extracted from an encoded image.
type Dimensions struct {
	Width  int
	Height int
}

// Inspect extracts pixel dimensions from buf for the claimed MIME type.
// Both full MIME types ("image/png") and bare subtypes ("png") are accepted.
// A nil return means the buffer could not be interpreted in that format.
func Inspect(buf []byte, mimeType string) *Dimensions {
	switch normalize(mimeType) {
	case "png":
		return pngDimensions(buf)
	case "jpeg":
		return jpegDimensions(buf)
	case "gif":
		return gifDimensions(buf)
	case "webp":
		return webpDimensions(buf)
	default:
		return nil
	}
}

func normalize(mimeType string) string {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	m = strings.TrimPrefix(m, "image/")
	if m == "jpg" {
		m = "jpeg"
	}
	return m
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// pngDimensions reads the IHDR chunk: 8-byte signature, 4-byte length,
// 4-byte chunk type, then width and height as big-endian uint32.
func pngDimensions(buf []byte) *Dimensions {
	if len(buf) < 24 || !bytes.HasPrefix(buf, pngSignature) {
		return nil
	}
	if string(buf[12:16]) != "IHDR" {
		return nil
	}
	w := binary.BigEndian.Uint32(buf[16:20])
	h := binary.BigEndian.Uint32(buf[20:24])
	if w == 0 || h == 0 {
		return nil
	}
	return &Dimensions{Width: int(w), Height: int(h)}
}

// jpegDimensions walks the JPEG structure up to the start-of-frame marker via
// the stdlib decoder's config pass, which reads headers only.
func jpegDimensions(buf []byte) *Dimensions {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(buf))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}
	return &Dimensions{Width: cfg.Width, Height: cfg.Height}
}

// gifDimensions reads the logical screen descriptor: width and height as
// little-endian uint16 at offsets 6 and 8.
func gifDimensions(buf []byte) *Dimensions {
	if len(buf) < 10 {
		return nil
	}
	if string(buf[:3]) != "GIF" {
		return nil
	}
	w := binary.LittleEndian.Uint16(buf[6:8])
	h := binary.LittleEndian.Uint16(buf[8:10])
	if w == 0 || h == 0 {
		return nil
	}
	return &Dimensions{Width: int(w), Height: int(h)}
}

// webpDimensions understands the RIFF container with the lossy VP8 and
// lossless VP8L bitstreams. Extended (VP8X) and unknown fourccs yield nil.
func webpDimensions(buf []byte) *Dimensions {
	if len(buf) < 30 {
		return nil
	}
	if string(buf[0:4]) != "RIFF" || string(buf[8:12]) != "WEBP" {
		return nil
	}
	switch string(buf[12:16]) {
	case "VP8 ":
		w := int(binary.LittleEndian.Uint16(buf[26:28]) & 0x3FFF)
		h := int(binary.LittleEndian.Uint16(buf[28:30]) & 0x3FFF)
		if w == 0 || h == 0 {
			return nil
		}
		return &Dimensions{Width: w, Height: h}
	case "VP8L":
		if len(buf) < 25 {
			return nil
		}
		bits := binary.LittleEndian.Uint32(buf[21:25])
		w := int(bits&0x3FFF) + 1
		h := int((bits>>14)&0x3FFF) + 1
		return &Dimensions{Width: w, Height: h}
	default:
		return nil
	}
}
