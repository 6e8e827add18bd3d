package preprocess

import (
	"image"
	"slices"
)

// OtsuThreshold picks the global gray level that maximizes between-class variance.
func OtsuThreshold(img *image.Gray) uint8 {
	var hist [256]int
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 128
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i * n)
	}

	var (
		sumB, maxVar float64
		wB           int
		best         int
	)
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t * hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			best = t
		}
	}
	if maxVar == 0 {
		// single-tone image: everything is background
		return 0
	}
	return uint8(best)
}

// Binarize maps pixels <= t to black (0) and the rest to white (255).
func Binarize(img *image.Gray, t uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if v <= t {
				dst[x] = 0
			} else {
				dst[x] = 255
			}
		}
	}
	return out
}

// MedianFilter applies a 3x3 median; border pixels use the clamped neighbourhood.
func MedianFilter(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	var win [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, 0, h-1)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, 0, w-1)
					win[n] = img.Pix[yy*img.Stride+xx]
					n++
				}
			}
			s := win[:n]
			slices.Sort(s)
			out.Pix[y*out.Stride+x] = s[n/2]
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
