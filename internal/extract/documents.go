package extract

import (
	"regexp"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/joseph-ayodele/immigration-docs/constants"
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

var (
	rePassportNo   = regexp.MustCompile(`\b([A-Z][0-9]{8}|[A-Z]{2}[0-9]{7})\b`)
	reReceiptNo    = regexp.MustCompile(`\b([A-Z]{3}[0-9]{10})\b`)
	reUSCISNo      = regexp.MustCompile(`\b([0-9]{3}-[0-9]{3}-[0-9]{3})\b`)
	reUSCISPlain   = regexp.MustCompile(`(?i)\buscis\s*#?[: \t]*([0-9]{9})\b`)
	reI94No        = regexp.MustCompile(`(?i:i-94|admission)[^\n]*?\b([0-9]{11})\b`)
	reControlNo    = regexp.MustCompile(`(?i:control)[^\n]*?\b([0-9]{8,12})\b`)
	reVisaType     = regexp.MustCompile(`(?i:visa type|class)[^\n]*?\b([A-Z]-?[0-9]{1,2}[A-Z]?)\b`)
	reClassOfAdm   = regexp.MustCompile(`(?i:class of admission)[^\n]*?\b([A-Z]{1,2}-?[0-9]{1,2}[A-Z]?)\b`)
	reEntries      = regexp.MustCompile(`(?i)\b(single|multiple|multi)\s*entr`)
	reNationality  = regexp.MustCompile(`(?i:\b(?:nationality|citizen))[: \t]+([A-Z][A-Z ]+)`)
	reGender       = regexp.MustCompile(`(?i)\b(?:sex|gender)\b[: \t/]*\b(MALE|FEMALE|M|F)\b`)
	reAuthority    = regexp.MustCompile(`(?i:\b(?:issuing authority|authority))[: \t]+([A-Z][A-Za-z .,'-]*[A-Za-z])`)
	rePlaceOfIssue = regexp.MustCompile(`(?i:\bplace of issue)[: \t]+([A-Z][A-Za-z .,'-]*[A-Za-z])`)
	reNoticeOf     = regexp.MustCompile(`(?i)notice of (approval|receipt|rejection)`)
	reNoticeType   = regexp.MustCompile(`(?i)notice type[: \t]+(approval|receipt|rejection)`)
	reValidRange   = regexp.MustCompile(`(?i)\bvalid(?:ity)?\s+from\b[^\n]*?\bto\b[: \t]*([^\n]+)`)
	reBeneficiary  = regexp.MustCompile(`(?i:\bbeneficiary(?:\s+name)?)[: \t]+([A-Z][A-Z ,.'-]*[A-Z])`)
	rePetitioner   = regexp.MustCompile(`(?i:\bpetitioner(?:\s+name)?)[: \t]+([A-Z][A-Z ,.'-]*[A-Z])`)
	reEADCategory  = regexp.MustCompile(`(?i)\(([ac]\d{1,2}[a-z]?)\)`)
	reEADCatLabel  = regexp.MustCompile(`(?i)\bcategory[: \t]+([ac]\d{1,2}[a-z]?)\b`)
	reGCCategory   = regexp.MustCompile(`(?i)\bcategory[: \t]+([a-z]{1,2}\d{1,2})\b`)
	reDLNumber     = regexp.MustCompile(`(?i)\b(?:dl\s*no|dl\s*#|license\s*(?:number|no))\.?[: \t#]*([A-Z0-9-]{5,20})\b`)
	reDS           = regexp.MustCompile(`(?i)(?:^|[^A-Z])D\s*/\s*S\b`)
	reHasDigit     = regexp.MustCompile(`[0-9]`)

	genericNumbers = []*regexp.Regexp{
		reReceiptNo,
		regexp.MustCompile(`\b([A-Z][0-9]{8})\b`),
		regexp.MustCompile(`\b([0-9]{11})\b`),
	}

	lblPassportIssue  = labels("date of issue", "issued")
	lblPassportExpiry = labels("date of expiry", "expires", "expiration")
	lblBirth          = labels("date of birth", "dob", "born")
	lblVisaIssue      = labels("issue date", "issued")
	lblVisaExpiry     = labels("expiration date", "expires")
	lblAdmission      = labels("admission date", "admitted")
	lblAdmitUntil     = labels("admit until", "admitted until")
	lblValidFrom      = labels("valid from", "validity from")
	lblValidTo        = labels("valid to", "validity to", "valid until")
	lblPriority       = labels("priority date")
	lblEADIssue       = labels("valid from", "issue date")
	lblEADExpiry      = labels("card expires", "exp date")
	lblGenericIssue   = labels("issue", "issued")
	lblGenericExpiry  = labels("expir", "valid until")
)

func submatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func findDateInto(d *entity.ExtractedData, dst **civil.Date, text string, l Labels, skip func(string) bool) {
	v, warnings := l.findDate(text, skip)
	d.Warnings = append(d.Warnings, warnings...)
	if v != nil {
		*dst = v
	}
}

func canonicalVisa(raw string) string {
	if v, ok := constants.CanonicalVisaType(raw); ok {
		return v
	}
	return strings.ToUpper(raw)
}

func fillName(text string, d *entity.ExtractedData, split bool) {
	if split {
		given, surname := findSplitName(text)
		if given != "" && surname != "" {
			full := given + " " + surname
			if validName(full) {
				d.FullName = entity.Str(full)
				d.FirstName = entity.Str(given)
				d.LastName = entity.Str(surname)
				return
			}
		}
	}
	name := findName(text)
	if name == "" {
		return
	}
	d.FullName = entity.Str(name)
	if split {
		first, last := splitFullName(name)
		d.FirstName = entity.Str(first)
		d.LastName = entity.Str(last)
	}
}

func extractPassport(text string, d *entity.ExtractedData) {
	if n := submatch(rePassportNo, text); n != "" {
		d.PassportNumber = entity.Str(n)
		d.DocumentNumber = entity.Str(n)
	}
	findDateInto(d, &d.IssueDate, text, lblPassportIssue, nil)
	findDateInto(d, &d.ExpiryDate, text, lblPassportExpiry, nil)
	findDateInto(d, &d.DateOfBirth, text, lblBirth, nil)
	fillName(text, d, true)

	if v := findLabelled(reNationality, text, 3, maxNameLen); v != "" {
		d.Nationality = entity.Str(v)
	}
	if g := submatch(reGender, text); g != "" {
		d.Gender = entity.Str(strings.ToUpper(g[:1]))
	}
	if v := findLabelled(reAuthority, text, 3, maxNameLen); v != "" {
		d.IssuingAuthority = entity.Str(v)
	}
	if v := findLabelled(rePlaceOfIssue, text, 3, maxNameLen); v != "" {
		d.PlaceOfIssue = entity.Str(v)
	}

	if mrz, ok := parseMRZ(text); ok {
		applyMRZ(mrz, d)
	}
}

// applyMRZ fills only what the printed labels left unset.
func applyMRZ(m mrzData, d *entity.ExtractedData) {
	if d.PassportNumber == nil && m.DocumentNumber != "" {
		d.PassportNumber = entity.Str(m.DocumentNumber)
	}
	if d.DocumentNumber == nil {
		d.DocumentNumber = d.PassportNumber
	}
	if d.Nationality == nil {
		d.Nationality = entity.Str(m.Nationality)
	}
	if d.DateOfBirth == nil {
		d.DateOfBirth = m.DateOfBirth
	}
	if d.ExpiryDate == nil {
		d.ExpiryDate = m.ExpiryDate
	}
	if d.Gender == nil {
		d.Gender = entity.Str(m.Gender)
	}
	if d.LastName == nil {
		d.LastName = entity.Str(m.Surname)
	}
	if d.FirstName == nil {
		d.FirstName = entity.Str(m.GivenNames)
	}
	if d.FullName == nil && m.Surname != "" {
		d.FullName = entity.Str(strings.TrimSpace(m.GivenNames + " " + m.Surname))
	}
}

func extractVisa(text string, d *entity.ExtractedData) {
	if n := submatch(reControlNo, text); n != "" {
		d.ControlNumber = entity.Str(n)
		d.DocumentNumber = entity.Str(n)
	}
	if t := submatch(reVisaType, text); t != "" {
		v := canonicalVisa(t)
		d.VisaType = entity.Str(v)
		d.VisaClass = entity.Str(v)
	}
	findDateInto(d, &d.IssueDate, text, lblVisaIssue, nil)
	findDateInto(d, &d.ExpiryDate, text, lblVisaExpiry, nil)
	if e := submatch(reEntries, text); e != "" {
		e = strings.ToUpper(e)
		if e == "MULTI" {
			e = "MULTIPLE"
		}
		d.Entries = entity.Str(e)
	}
	fillName(text, d, false)
	if v := findLabelled(reNationality, text, 3, maxNameLen); v != "" {
		d.Nationality = entity.Str(v)
	}
}

func extractI94(text string, d *entity.ExtractedData) {
	if n := submatch(reI94No, text); n != "" {
		d.I94Number = entity.Str(n)
		d.DocumentNumber = entity.Str(n)
	}
	findDateInto(d, &d.AdmissionDate, text, lblAdmission, func(w string) bool {
		return strings.HasPrefix(strings.ToLower(w), "admitted until")
	})

	ds := false
	for _, w := range lblAdmitUntil.windows(text) {
		if reDS.MatchString(w.text) {
			ds = true
			break
		}
	}
	if ds {
		d.DurationOfStatus = true
		d.AddWarning("admit_until_date: Duration of Status (D/S)")
	} else {
		findDateInto(d, &d.AdmitUntilDate, text, lblAdmitUntil, nil)
	}

	if c := submatch(reClassOfAdm, text); c != "" {
		d.ClassOfAdmission = entity.Str(canonicalVisa(c))
	}
	fillName(text, d, true)
}

func extractI797(text string, d *entity.ExtractedData) {
	if n := submatch(reReceiptNo, text); n != "" {
		d.ReceiptNumber = entity.Str(n)
		d.DocumentNumber = entity.Str(n)
	}
	notice := submatch(reNoticeOf, text)
	if notice == "" {
		notice = submatch(reNoticeType, text)
	}
	if notice != "" {
		d.NoticeType = entity.Str(strings.ToUpper(notice))
	}

	findDateInto(d, &d.ValidityFrom, text, lblValidFrom, nil)
	findDateInto(d, &d.ValidityTo, text, lblValidTo, nil)
	if d.ValidityTo == nil {
		// "Valid from 03/01/2024 to 02/28/2027" on one line
		if rest := submatch(reValidRange, text); rest != "" {
			if v, err := firstDate(rest); err == nil {
				d.ValidityTo = v
			}
		}
	}
	findDateInto(d, &d.PriorityDate, text, lblPriority, nil)

	if v := findLabelled(reBeneficiary, text, minNameLen, maxNameLen); v != "" {
		d.BeneficiaryName = entity.Str(v)
	}
	if v := findLabelled(rePetitioner, text, minNameLen, maxNameLen); v != "" {
		d.PetitionerName = entity.Str(v)
	}
}

func extractEAD(text string, d *entity.ExtractedData) {
	if n := submatch(reUSCISNo, text); n != "" {
		d.USCISNumber = entity.Str(n)
	}
	if n := submatch(reReceiptNo, text); n != "" {
		d.CardNumber = entity.Str(n)
		d.DocumentNumber = entity.Str(n)
	}
	cat := submatch(reEADCategory, text)
	if cat == "" {
		cat = submatch(reEADCatLabel, text)
	}
	if cat != "" {
		d.Category = entity.Str(strings.ToUpper(cat))
	}
	findDateInto(d, &d.IssueDate, text, lblEADIssue, nil)
	findDateInto(d, &d.ExpiryDate, text, lblEADExpiry, nil)
	fillName(text, d, false)
}

func extractGreenCard(text string, d *entity.ExtractedData) {
	uscis := submatch(reUSCISNo, text)
	if uscis == "" {
		uscis = submatch(reUSCISPlain, text)
	}
	if uscis != "" {
		d.USCISNumber = entity.Str(uscis)
	}
	if c := submatch(reGCCategory, text); c != "" {
		d.Category = entity.Str(strings.ToUpper(c))
	}
	if n := submatch(reReceiptNo, text); n != "" {
		d.CardNumber = entity.Str(n)
	}
}

func extractDriversLicense(text string, d *entity.ExtractedData) {
	if n := submatch(reDLNumber, text); n != "" && reHasDigit.MatchString(n) {
		d.DocumentNumber = entity.Str(strings.ToUpper(n))
	}
}

func extractGeneric(text string, d *entity.ExtractedData) {
	fillName(text, d, false)
	findDateInto(d, &d.IssueDate, text, lblGenericIssue, nil)
	findDateInto(d, &d.ExpiryDate, text, lblGenericExpiry, nil)
	for _, re := range genericNumbers {
		if n := submatch(re, text); n != "" {
			d.DocumentNumber = entity.Str(n)
			break
		}
	}
	if v := findLabelled(reAuthority, text, 3, maxNameLen); v != "" {
		d.IssuingAuthority = entity.Str(v)
	}
}

// firstDate parses the first date token found anywhere in s.
func firstDate(s string) (*civil.Date, error) {
	var lastErr error
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		d, err := buildDate(m, p.layout)
		if err != nil {
			lastErr = err
			continue
		}
		return &d, nil
	}
	if lastErr == nil {
		lastErr = errNoDate
	}
	return nil, lastErr
}
