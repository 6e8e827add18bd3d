package classify

import (
	"regexp"

	"github.com/joseph-ayodele/immigration-docs/constants"
)

const (
	WeightHigh    = 10
	WeightMedium  = 5
	WeightPattern = 15

	// unrelatedThreshold is how many distinct unrelated keywords make a
	// zero-score text "other" instead of "unknown".
	unrelatedThreshold = 3
)

type rule struct {
	docType  constants.DocumentType
	high     []string
	medium   []string
	patterns []*regexp.Regexp
}

func re(expr string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + expr) }

// rules is evaluated in declaration order; scoring does not depend on it.
var rules = []rule{
	{
		docType:  constants.DocumentTypePassport,
		high:     []string{"passport number", "united states of america passport", "passport type"},
		medium:   []string{"passport", "passeport", "pasaporte"},
		patterns: []*regexp.Regexp{re(`passport\s+no[:.\s]`), re(`nationality[:\s]+[A-Z]{2,3}`)},
	},
	{
		docType:  constants.DocumentTypeVisa,
		high:     []string{"nonimmigrant visa", "immigrant visa", "visa type", "foil number"},
		medium:   []string{"visa", "entry", "control number"},
		patterns: []*regexp.Regexp{re(`visa\s+type[:\s]`), re(`\b[A-Z]-?[0-9]{1,2}[A-Z]?\s+visa`), re(`control\s+no[:\s]`)},
	},
	{
		docType:  constants.DocumentTypeI94,
		high:     []string{"i-94", "arrival/departure record", "admission number", "cbp.gov"},
		medium:   []string{"i94", "admitted until", "class of admission"},
		patterns: []*regexp.Regexp{re(`i-?94\s+number`), re(`admit\s+until`), re(`class\s+of\s+admission`)},
	},
	{
		docType:  constants.DocumentTypeI797,
		high:     []string{"notice of action", "i-797", "uscis", "receipt number"},
		medium:   []string{"i797", "approval notice", "petition"},
		patterns: []*regexp.Regexp{re(`\b[A-Z]{3}[0-9]{10}\b`), re(`receipt\s+number`), re(`notice\s+type`)},
	},
	{
		docType:  constants.DocumentTypeEAD,
		high:     []string{"employment authorization document", "work permit", "uscis#"},
		medium:   []string{"ead", "employment authorization", "work authorization"},
		patterns: []*regexp.Regexp{re(`uscis\s*#?[:\s]`), re(`category[:\s]+[AC][0-9]{2}`), re(`card\s+expires`)},
	},
	{
		docType:  constants.DocumentTypeDriversLicense,
		high:     []string{"driver license", "drivers license", "motor vehicle"},
		medium:   []string{"driving license", "dl no", "license number"},
		patterns: []*regexp.Regexp{re(`dl\s+no[:\s]`), re(`license\s+number`), re(`motor\s+vehicle`)},
	},
	{
		docType:  constants.DocumentTypeGreenCard,
		high:     []string{"permanent resident card", "green card", "lawful permanent resident"},
		medium:   []string{"resident alien", "permanent resident"},
		patterns: []*regexp.Regexp{re(`resident\s+alien`), re(`permanent\s+resident`), re(`card\s+expires`)},
	},
}

// unrelatedKeywords mark text that is clearly not an immigration document.
var unrelatedKeywords = []string{
	"blog post", "article", "substack", "newsletter", "tutorial",
	"engineering", "team", "project", "development", "software",
}
