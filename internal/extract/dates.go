package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const monthAlt = `(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)[A-Z]*\.?`

type dateLayout int

const (
	layoutMDY dateLayout = iota // 03/01/2024, 03-01-24
	layoutDMonY                 // 15 JAN 2023
	layoutMonDY                 // JAN 05, 1998
	layoutISO                   // 2024-03-01
)

type datePattern struct {
	re     *regexp.Regexp
	layout dateLayout
}

// Tried in order inside each keyword window.
var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`), layoutMDY},
	{regexp.MustCompile(`(?i)\b(\d{1,2})\s+` + monthAlt + `\s+(\d{2,4})\b`), layoutDMonY},
	{regexp.MustCompile(`(?i)\b` + monthAlt + `\s+(\d{1,2}),?\s+(\d{2,4})\b`), layoutMonDY},
	{regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), layoutISO},
}

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March, "APR": time.April,
	"MAY": time.May, "JUN": time.June, "JUL": time.July, "AUG": time.August,
	"SEP": time.September, "OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// ParseDate parses one date token in any supported layout. Two-digit years
// pivot at 30: 00-29 -> 20xx, 30-99 -> 19xx.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil || m[0] != s {
			continue
		}
		return buildDate(m, p.layout)
	}
	return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
}

func buildDate(m []string, layout dateLayout) (civil.Date, error) {
	var (
		y, d  int
		month time.Month
	)
	switch layout {
	case layoutMDY:
		mo, _ := strconv.Atoi(m[1])
		d, _ = strconv.Atoi(m[2])
		y, _ = strconv.Atoi(m[3])
		month = time.Month(mo)
	case layoutDMonY:
		d, _ = strconv.Atoi(m[1])
		month = months[strings.ToUpper(m[2])]
		y, _ = strconv.Atoi(m[3])
	case layoutMonDY:
		month = months[strings.ToUpper(m[1])]
		d, _ = strconv.Atoi(m[2])
		y, _ = strconv.Atoi(m[3])
	case layoutISO:
		y, _ = strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ = strconv.Atoi(m[3])
		month = time.Month(mo)
	}

	switch {
	case y < 30 && len(yearToken(m, layout)) <= 2:
		y += 2000
	case y < 100 && len(yearToken(m, layout)) <= 2:
		y += 1900
	case y < 1000:
		return civil.Date{}, fmt.Errorf("bad year in %q", m[0])
	}

	date := civil.Date{Year: y, Month: month, Day: d}
	if !date.IsValid() {
		return civil.Date{}, fmt.Errorf("invalid calendar date %q", m[0])
	}
	return date, nil
}

func yearToken(m []string, layout dateLayout) string {
	if layout == layoutISO {
		return m[1]
	}
	return m[3]
}

// Labels is a precompiled, ordered keyword list. A keyword matches
// case-insensitively at a word start.
type Labels struct {
	names []string
	res   []*regexp.Regexp
}

func labels(keywords ...string) Labels {
	l := Labels{names: keywords, res: make([]*regexp.Regexp, len(keywords))}
	for i, kw := range keywords {
		l.res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw))
	}
	return l
}

// windows returns each keyword occurrence through end of line, in keyword order.
func (l Labels) windows(text string) []labelWindow {
	var out []labelWindow
	for i, re := range l.res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			end := strings.IndexByte(text[loc[0]:], '\n')
			if end < 0 {
				end = len(text)
			} else {
				end += loc[0]
			}
			out = append(out, labelWindow{keyword: l.names[i], text: text[loc[0]:end]})
		}
	}
	return out
}

type labelWindow struct {
	keyword string
	text    string
}

// findDate returns the first parseable date in any window. Matched but
// impossible tokens are reported as warnings and the search goes on.
func (l Labels) findDate(text string, skip func(window string) bool) (*civil.Date, []string) {
	var warnings []string
	for _, w := range l.windows(text) {
		if skip != nil && skip(w.text) {
			continue
		}
		for _, p := range datePatterns {
			m := p.re.FindStringSubmatch(w.text)
			if m == nil {
				continue
			}
			d, err := buildDate(m, p.layout)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("Could not parse date near %q: %s", w.keyword, m[0]))
				continue
			}
			return &d, warnings
		}
	}
	return nil, warnings
}

// FindDateNear looks for a date on the same line after any of keywords.
func FindDateNear(text string, keywords ...string) (*civil.Date, []string) {
	return labels(keywords...).findDate(text, nil)
}
