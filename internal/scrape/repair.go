package scrape

import (
	"encoding/json"
	"regexp"
	"strings"

	"matchworker/pkg/errors"
)

var (
	// bare identifier keys after an opening brace or a comma
	bareKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)\s*:`)
	// single quotes, with an optional preceding backslash captured so escaped
	// ones can be left alone
	singleQuotePattern = regexp.MustCompile(`\\?'`)
	// commas dangling before a closing brace or bracket
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// RepairLiteral rewrites a loose JavaScript object literal into strict JSON
// text. The three repairs run in a fixed order and the whole function is
// idempotent: repairing already-repaired text changes nothing.
//
// Known limitation, kept from the feed's observed shape: an unescaped
// apostrophe inside a single-quoted string value is converted along with the
// delimiters and breaks the literal. Escaped quotes are preserved as-is.
func RepairLiteral(raw string) string {
	repaired := bareKeyPattern.ReplaceAllString(raw, `$1"$2":`)
	repaired = singleQuotePattern.ReplaceAllStringFunc(repaired, func(m string) string {
		if strings.HasPrefix(m, `\`) {
			return m
		}
		return `"`
	})
	repaired = trailingCommaPattern.ReplaceAllString(repaired, "$1")
	return repaired
}

// ParseLiteral repairs the literal and decodes it. The repaired text is
// returned even on failure so callers can dump it for inspection.
func ParseLiteral(raw string) (map[string]interface{}, string, error) {
	repaired := RepairLiteral(raw)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, repaired, errors.NewParsing("repair", "repaired literal is not valid JSON", err)
	}
	return payload, repaired, nil
}
