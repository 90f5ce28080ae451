package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// addressSelectors are scanned in order; the footer catch-all comes last.
var addressSelectors = []string{
	"address",
	`[itemprop*="address"]`,
	`[class*="address"]`,
	`[class*="location"]`,
	"footer",
}

var (
	anyDigit    = regexp.MustCompile(`\d`)
	streetToken = regexp.MustCompile(`(?i)\b(st|ave|rd|dr|blvd|ct|hwy)\b`)
	zipCode     = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	multiSpace  = regexp.MustCompile(`\s{2,}`)
)

// Address returns the best street-address candidate on the page, or "" when
// nothing qualifies. A candidate must carry a digit, a street token, and a
// ZIP code; the longest qualifying text wins since it tends to be the most
// complete.
func Address(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	seen := make(map[string]struct{})
	best := ""
	for _, sel := range addressSelectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := multiSpace.ReplaceAllString(strings.TrimSpace(s.Text()), " ")
			text = strings.Join(strings.Fields(text), " ")
			if len(text) <= 15 || len(text) >= 300 {
				return
			}
			if _, dup := seen[text]; dup {
				return
			}
			seen[text] = struct{}{}
			if !anyDigit.MatchString(text) || !streetToken.MatchString(text) || !zipCode.MatchString(text) {
				return
			}
			if len(text) > len(best) {
				best = text
			}
		})
	}
	return best
}
