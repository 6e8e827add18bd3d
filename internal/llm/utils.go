package llm

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/preprocess"
)

// ErrImageTooLarge is returned when an image exceeds the vision size gate.
var ErrImageTooLarge = errors.New("image too large for vision")

// PrepareImage returns bytes and a MIME type every provider accepts. TIFF is
// re-encoded as PNG; PDFs must be rasterized by the caller first.
func PrepareImage(data []byte, mimeType string) ([]byte, string, error) {
	mt := constants.NormalizeMIME(mimeType)
	switch mt {
	case constants.MIMEJPEG, constants.MIMEPNG, constants.MIMEWebP:
	case constants.MIMETIFF:
		img, err := preprocess.DecodeImage(data)
		if err != nil {
			return nil, "", fmt.Errorf("decode tiff: %w", err)
		}
		png, err := preprocess.EncodePNG(img)
		if err != nil {
			return nil, "", err
		}
		data, mt = png, constants.MIMEPNG
	default:
		return nil, "", fmt.Errorf("unsupported vision mime type %q", mimeType)
	}

	// size gate
	if len(data) > constants.MaxVisionMBDefault*1024*1024 {
		return nil, "", ErrImageTooLarge
	}
	return data, mt, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
