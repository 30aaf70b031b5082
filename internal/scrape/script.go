package scrape

import (
	"regexp"
	"strings"

	"matchworker/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

// ScriptPattern names one known embedding of the match payload in a script block
type ScriptPattern struct {
	Name    string
	pattern *regexp.Regexp
}

// payloadPatterns are tried in order. Pattern priority outranks script node
// order: a low-priority match in an early script never beats a high-priority
// match in a later one.
var payloadPatterns = []ScriptPattern{
	{
		Name:    "require_config_args",
		pattern: regexp.MustCompile(`(?is)require\.config\.params\["args"\]\s*=\s*(\{.*?\});`),
	},
	{
		Name:    "match_centre_var",
		pattern: regexp.MustCompile(`(?is)var\s+matchCentreData\s*=\s*(\{.*?\});`),
	},
}

// ExtractPayload scans every script block of the page and returns the raw
// object literal of the highest-priority pattern that matches, along with the
// name of the pattern that produced it.
func ExtractPayload(html string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", errors.NewParsing("script", "failed to parse page HTML", err)
	}

	var scripts []string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if text := sel.Text(); text != "" {
			scripts = append(scripts, text)
		}
	})

	for _, p := range payloadPatterns {
		for _, script := range scripts {
			if m := p.pattern.FindStringSubmatch(script); m != nil {
				return m[1], p.Name, nil
			}
		}
	}

	return "", "", errors.NewExtraction("script", "no match payload found in any script block", nil)
}
