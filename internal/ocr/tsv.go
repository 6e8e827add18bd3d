package ocr

import (
	"strconv"
	"strings"
)

// tesseract TSV columns:
// level page_num block_num par_num line_num word_num left top width height conf text
const tsvColumns = 12

type lineKey struct{ block, par, line int }

// parseTSV turns tesseract TSV output into word tokens, the reconstructed text
// and the mean word confidence (0..1). page overrides the page number column.
func parseTSV(out string, page int) ([]Token, string, float32) {
	var (
		tokens  []Token
		b       strings.Builder
		prev    lineKey
		started bool
		sum     float64
		n       int
	)
	for i, ln := range strings.Split(out, "\n") {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < tsvColumns {
			continue
		}
		if cols[0] != "5" { // word level only
			continue
		}
		word := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if word == "" {
			continue
		}
		key := lineKey{atoi(cols[2]), atoi(cols[3]), atoi(cols[4])}
		switch {
		case !started:
			started = true
		case key.block != prev.block || key.par != prev.par:
			b.WriteString("\n\n")
		case key.line != prev.line:
			b.WriteString("\n")
		default:
			b.WriteString(" ")
		}
		prev = key
		b.WriteString(word)

		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			conf = 0
		} else {
			sum += conf
			n++
		}
		tokens = append(tokens, Token{
			Text:       word,
			Page:       page,
			Left:       atoi(cols[6]),
			Top:        atoi(cols[7]),
			Width:      atoi(cols[8]),
			Height:     atoi(cols[9]),
			Confidence: float32(conf / 100.0),
		})
	}
	var mean float32
	if n > 0 {
		mean = float32(sum / float64(n) / 100.0)
	}
	return tokens, b.String(), mean
}

func atoi(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}
