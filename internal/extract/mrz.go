package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// TD3 (passport) machine readable zone: two lines of 44 characters.
var (
	reMRZLine1 = regexp.MustCompile(`(?m)^P[A-Z<][A-Z<]{3}[A-Z<]{39}\s*$`)
	reMRZLine2 = regexp.MustCompile(`(?m)^[A-Z0-9<]{9}[0-9<][A-Z<]{3}[0-9]{6}[0-9<][MF<][0-9]{6}[0-9<][A-Z0-9<]{14}[0-9<]{2}\s*$`)
)

type mrzData struct {
	Surname        string
	GivenNames     string
	IssuingState   string
	DocumentNumber string
	Nationality    string
	DateOfBirth    *civil.Date
	Gender         string
	ExpiryDate     *civil.Date
}

// parseMRZ finds a TD3 zone in OCR text. OCR often adds spaces, which are removed
// before matching.
func parseMRZ(text string) (mrzData, bool) {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.ReplaceAll(strings.TrimSpace(ln), " ", "")
		if len(ln) == 44 {
			lines = append(lines, ln)
		}
	}
	for i := 0; i+1 < len(lines); i++ {
		if reMRZLine1.MatchString(lines[i]) && reMRZLine2.MatchString(lines[i+1]) {
			return decodeTD3(lines[i], lines[i+1]), true
		}
	}
	return mrzData{}, false
}

func decodeTD3(l1, l2 string) mrzData {
	var d mrzData
	d.IssuingState = cleanMRZ(l1[2:5])
	names := strings.SplitN(l1[5:], "<<", 2)
	d.Surname = cleanMRZName(names[0])
	if len(names) == 2 {
		d.GivenNames = cleanMRZName(names[1])
	}

	d.DocumentNumber = cleanMRZ(l2[0:9])
	d.Nationality = cleanMRZ(l2[10:13])
	d.DateOfBirth = mrzDate(l2[13:19], false)
	if g := l2[20:21]; g == "M" || g == "F" {
		d.Gender = g
	}
	d.ExpiryDate = mrzDate(l2[21:27], true)
	return d
}

// mrzDate decodes YYMMDD. Birth dates in the future belong to the previous
// century; expiry dates are always 20xx.
func mrzDate(s string, expiry bool) *civil.Date {
	if len(s) != 6 {
		return nil
	}
	yy, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[2:4])
	dd, err3 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	year := 2000 + yy
	if !expiry && year > civil.DateOf(nowFunc()).Year {
		year -= 100
	}
	d := civil.Date{Year: year, Month: time.Month(mm), Day: dd}
	if !d.IsValid() {
		return nil
	}
	return &d
}

func cleanMRZ(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "<", ""))
}

func cleanMRZName(s string) string {
	s = strings.TrimRight(s, "< ")
	s = strings.ReplaceAll(s, "<", " ")
	return collapse(s)
}
