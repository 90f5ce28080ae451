package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nyaruka/phonenumbers"
)

// phoneCandidate finds US-shaped numbers in visible text; each candidate is
// then validated and formatted through libphonenumber.
var phoneCandidate = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)
var digitsOnly = regexp.MustCompile(`\D`)

// Phones collects phone numbers from visible text and tel: links, formatted
// in the US national convention, deduplicated and sorted.
func Phones(text string, doc *goquery.Document) []string {
	found := make(map[string]struct{})

	for _, cand := range phoneCandidate.FindAllString(text, -1) {
		if formatted, ok := usNational(cand); ok {
			found[formatted] = struct{}{}
		}
	}

	if doc != nil {
		doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			tel := nonPhoneChars.ReplaceAllString(strings.TrimPrefix(href, "tel:"), "")
			digits := len(strings.TrimPrefix(tel, "+"))
			if digits < 10 || digits > 15 {
				return
			}
			if formatted, ok := usNational(tel); ok {
				found[formatted] = struct{}{}
			}
		})
	}

	out := make([]string, 0, len(found))
	for p := range found {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// usNational parses a candidate with a US bias and returns the national
// formatting when the number is possible and of sane length.
func usNational(candidate string) (string, bool) {
	num, err := phonenumbers.Parse(candidate, "US")
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return "", false
	}
	e164 := phonenumbers.Format(num, phonenumbers.E164)
	if n := len(digitsOnly.ReplaceAllString(e164, "")); n < 10 || n > 15 {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL), true
}
