package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

// assetSuffixes weed out matches that are really static asset paths, e.g.
// "logo@2x.png" style strings that the regex happily matches.
var assetSuffixes = []string{
	".png", ".jpg", ".gif", ".webp", ".svg",
	".css", ".js", ".woff", ".ttf", ".pdf", ".zip",
}

// Emails collects addresses from raw markup, visible text, and mailto links.
// Results are lowercased, deduplicated, and sorted.
func Emails(html, text string, doc *goquery.Document) []string {
	found := make(map[string]struct{})
	for _, m := range emailPattern.FindAllString(html, -1) {
		found[m] = struct{}{}
	}
	for _, m := range emailPattern.FindAllString(text, -1) {
		found[m] = struct{}{}
	}
	if doc != nil {
		doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			addr := strings.TrimPrefix(href, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			addr = strings.TrimSpace(addr)
			if m := emailPattern.FindString(addr); m == addr && addr != "" {
				found[addr] = struct{}{}
			}
		})
	}

	var out []string
	seen := make(map[string]struct{}, len(found))
	for raw := range found {
		email := strings.ToLower(raw)
		if !plausibleEmail(email) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}

func plausibleEmail(email string) bool {
	if len(email) >= 100 {
		return false
	}
	for _, suffix := range assetSuffixes {
		if strings.HasSuffix(email, suffix) {
			return false
		}
	}
	parts := strings.Split(email, "@")
	return len(parts) == 2 && strings.Contains(parts[1], ".") && len(parts[1]) > 3
}
