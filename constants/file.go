package constants

import "strings"

// Source formats recorded on extract jobs.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// Supported MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMETIFF = "image/tiff"
	MIMEWebP = "image/webp"
)

// SupportedMIMETypes is the closed set of MIME types accepted for upload.
var SupportedMIMETypes = []string{MIMEPDF, MIMEJPEG, MIMEPNG, MIMETIFF, MIMEWebP}

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]string{
	"pdf":  MIMEPDF,
	"jpg":  MIMEJPEG,
	"jpeg": MIMEJPEG,
	"png":  MIMEPNG,
	"tif":  MIMETIFF,
	"tiff": MIMETIFF,
	"webp": MIMEWebP,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMIME strips parameters ("; charset=...") and lowercases.
func NormalizeMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "image/jpg" {
		return MIMEJPEG
	}
	return mime
}

// IsSupportedMIME reports whether the pipeline accepts the MIME type.
func IsSupportedMIME(mime string) bool {
	return MapMIMEToFormat(mime) != ""
}

// MapMIMEToFormat returns PDF, IMAGE or "" for unsupported types.
func MapMIMEToFormat(mime string) string {
	switch NormalizeMIME(mime) {
	case MIMEPDF:
		return PDF
	case MIMEJPEG, MIMEPNG, MIMETIFF, MIMEWebP:
		return IMAGE
	default:
		return ""
	}
}

// MIMEFromExt maps a file extension to its MIME type, or "" when unsupported.
func MIMEFromExt(ext string) string {
	return AllowedExtensions[NormalizeExt(ext)]
}

// MaxVisionMBDefault caps the image size sent to a vision model.
const MaxVisionMBDefault = 20
