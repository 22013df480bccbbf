package vision

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
	MIMEGIF  = "image/gif"
	MIMEBMP  = "image/bmp"
)

var extMIME = map[string]string{
	"jpg":  MIMEJPEG,
	"jpeg": MIMEJPEG,
	"png":  MIMEPNG,
	"webp": MIMEWebP,
	"gif":  MIMEGIF,
	"bmp":  MIMEBMP,
	// providers reject HEIC; phones usually deliver a JPEG-compatible upload
	"heic": MIMEJPEG,
	"heif": MIMEJPEG,
}

// DetectMIME sniffs magic bytes first and falls back to the file extension.
// Anything unrecognised is sent as JPEG.
func DetectMIME(data []byte, filename string) string {
	if mt, ok := sniff(data); ok {
		return mt
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if mt, ok := extMIME[ext]; ok {
		return mt
	}
	return MIMEJPEG
}

func sniff(b []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(b, []byte{0xFF, 0xD8, 0xFF}):
		return MIMEJPEG, true
	case bytes.HasPrefix(b, []byte{0x89, 0x50, 0x4E, 0x47}):
		return MIMEPNG, true
	case bytes.HasPrefix(b, []byte("RIFF")):
		return MIMEWebP, true
	case bytes.HasPrefix(b, []byte("GIF87a")), bytes.HasPrefix(b, []byte("GIF89a")):
		return MIMEGIF, true
	case bytes.HasPrefix(b, []byte("BM")):
		return MIMEBMP, true
	case len(b) >= 12 && string(b[4:8]) == "ftyp":
		// HEIC/HEIF container
		return MIMEJPEG, true
	}
	return "", false
}
