// Package preprocess prepares raster scans for OCR: grayscale, global
// binarization, denoise and skew correction.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/sunshineplan/imgconv"
)

const (
	defaultSkewThreshold = 0.5  // degrees; smaller skews are left alone
	defaultMaxSkew       = 45.0 // degrees searched either side of horizontal
	skewSampleDim        = 1200 // longest side used for skew estimation
)

// Report describes what Process did to an image.
type Report struct {
	Threshold uint8   `json:"threshold"`
	SkewAngle float64 `json:"skew_angle"`
	Rotated   bool    `json:"rotated"`
	Lines     int     `json:"lines"`
}

type Preprocessor struct {
	skewThreshold float64
	maxSkew       float64
	denoise       bool
	deskew        bool
}

type Option func(*Preprocessor)

// WithSkewThreshold sets the minimum |angle| in degrees that triggers rotation.
func WithSkewThreshold(deg float64) Option {
	return func(p *Preprocessor) {
		if deg >= 0 {
			p.skewThreshold = deg
		}
	}
}

// WithoutDenoise skips the median filter.
func WithoutDenoise() Option { return func(p *Preprocessor) { p.denoise = false } }

// WithoutDeskew skips skew estimation and rotation.
func WithoutDeskew() Option { return func(p *Preprocessor) { p.deskew = false } }

func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		skewThreshold: defaultSkewThreshold,
		maxSkew:       defaultMaxSkew,
		denoise:       true,
		deskew:        true,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process returns a binarized (0/255), denoised and deskewed copy of img.
// It never modifies img and is safe for concurrent use.
func (p *Preprocessor) Process(img image.Image) (*image.Gray, Report) {
	var rep Report

	gray := toGray(imaging.Grayscale(img))
	rep.Threshold = OtsuThreshold(gray)
	bin := Binarize(gray, rep.Threshold)
	if p.denoise {
		bin = MedianFilter(bin)
	}
	if !p.deskew {
		return bin, rep
	}

	angle, lines := EstimateSkew(bin, p.maxSkew)
	rep.SkewAngle = angle
	rep.Lines = lines
	if math.Abs(angle) > p.skewThreshold {
		bin = Rotate(bin, angle)
		rep.Rotated = true
	}
	return bin, rep
}

// Rotate turns img counter-clockwise by angle degrees, filling exposed corners
// with white, and re-binarizes the interpolated result.
func Rotate(img *image.Gray, angle float64) *image.Gray {
	rotated := imaging.Rotate(img, angle, color.White)
	return Binarize(toGray(rotated), 128)
}

// DecodeImage decodes JPEG, PNG, TIFF, WebP, BMP and GIF payloads.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imgconv.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG, the format handed to tesseract and vision providers.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgconv.Write(&buf, img, &imgconv.FormatOption{Format: imgconv.PNG}); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			out.Pix[y*out.Stride+x] = c.Y
		}
	}
	return out
}
