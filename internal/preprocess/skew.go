package preprocess

import (
	"image"
	"math"
	"sort"
)

const (
	angleStep    = 0.5 // degrees per accumulator bin
	maxEdgePts   = 40000
	maxPeakLines = 30
)

// EstimateSkew returns the dominant text-line angle in degrees within
// [-maxDeg, maxDeg] and the number of lines it was derived from. Positive
// angles mean lines descend to the right. With no detectable lines it
// returns 0.
//
// Dark pixels sitting on a light pixel (the bottom edges of glyphs and rules)
// vote in a Hough accumulator over (angle, offset); local maxima above a vote
// floor are taken as lines and the median of their angles is the skew.
func EstimateSkew(bin *image.Gray, maxDeg float64) (float64, int) {
	if maxDeg <= 0 {
		return 0, 0
	}
	b := bin.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 8 || h < 8 {
		return 0, 0
	}

	step := 1
	if m := max(w, h); m > skewSampleDim {
		step = (m + skewSampleDim - 1) / skewSampleDim
	}
	sw, sh := w/step, h/step

	dark := func(x, y int) bool { return bin.Pix[(y*step)*bin.Stride+x*step] < 128 }

	type pt struct{ x, y int }
	var pts []pt
	for y := 0; y < sh-1; y++ {
		for x := 0; x < sw; x++ {
			if dark(x, y) && !dark(x, y+1) {
				pts = append(pts, pt{x, y})
			}
		}
	}
	if len(pts) == 0 {
		return 0, 0
	}
	if len(pts) > maxEdgePts {
		stride := (len(pts) + maxEdgePts - 1) / maxEdgePts
		kept := pts[:0]
		for i := 0; i < len(pts); i += stride {
			kept = append(kept, pts[i])
		}
		pts = kept
	}

	nAngles := int(2*maxDeg/angleStep) + 1
	offset := sw + sh
	nRho := 2*offset + 1
	cosT := make([]float64, nAngles)
	sinT := make([]float64, nAngles)
	for i := 0; i < nAngles; i++ {
		rad := (-maxDeg + float64(i)*angleStep) * math.Pi / 180
		cosT[i], sinT[i] = math.Cos(rad), math.Sin(rad)
	}

	acc := make([]int32, nAngles*nRho)
	for _, p := range pts {
		fx, fy := float64(p.x), float64(p.y)
		for i := 0; i < nAngles; i++ {
			rho := int(math.Round(fy*cosT[i]-fx*sinT[i])) + offset
			acc[i*nRho+rho]++
		}
	}

	var peak int32
	for _, v := range acc {
		if v > peak {
			peak = v
		}
	}
	floor := int32(max(20, sw/8))
	if peak < floor {
		return 0, 0
	}
	if half := peak / 2; half > floor {
		floor = half
	}

	type cell struct {
		votes int32
		angle float64
	}
	var cells []cell
	for i := 0; i < nAngles; i++ {
		for r := 0; r < nRho; r++ {
			v := acc[i*nRho+r]
			if v < floor || !isLocalMax(acc, nAngles, nRho, i, r) {
				continue
			}
			cells = append(cells, cell{votes: v, angle: -maxDeg + float64(i)*angleStep})
		}
	}
	if len(cells) == 0 {
		return 0, 0
	}
	sort.Slice(cells, func(a, b int) bool {
		if cells[a].votes != cells[b].votes {
			return cells[a].votes > cells[b].votes
		}
		return cells[a].angle < cells[b].angle
	})
	if len(cells) > maxPeakLines {
		cells = cells[:maxPeakLines]
	}

	angles := make([]float64, len(cells))
	for i, c := range cells {
		angles[i] = c.angle
	}
	return median(angles), len(angles)
}

func isLocalMax(acc []int32, nA, nR, i, r int) bool {
	v := acc[i*nR+r]
	for di := -1; di <= 1; di++ {
		for dr := -1; dr <= 1; dr++ {
			if di == 0 && dr == 0 {
				continue
			}
			ii, rr := i+di, r+dr
			if ii < 0 || ii >= nA || rr < 0 || rr >= nR {
				continue
			}
			n := acc[ii*nR+rr]
			// ties resolve to the lower index so plateaus yield one peak
			if n > v || (n == v && (di < 0 || (di == 0 && dr < 0))) {
				return false
			}
		}
	}
	return true
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
