package browser

import (
	"fmt"
	"strings"
	"time"

	"matchworker/logger"
)

// LocatorKind identifies how a candidate expression is interpreted
type LocatorKind string

const (
	// KindCSS matches a CSS selector
	KindCSS LocatorKind = "css"
	// KindID matches an element by its id attribute
	KindID LocatorKind = "id"
	// KindXPath matches an XPath expression
	KindXPath LocatorKind = "xpath"
)

// Candidate is one way of locating a page element. Candidates are tried in
// the order they are listed; layout changes are absorbed by adding candidates,
// not by changing code.
type Candidate struct {
	Kind LocatorKind
	Expr string
}

// CSS builds a CSS selector candidate
func CSS(expr string) Candidate {
	return Candidate{Kind: KindCSS, Expr: expr}
}

// ID builds an element-id candidate
func ID(id string) Candidate {
	return Candidate{Kind: KindID, Expr: id}
}

// XPath builds an XPath candidate
func XPath(expr string) Candidate {
	return Candidate{Kind: KindXPath, Expr: expr}
}

// TextEquals builds a candidate matching an element of the given tag whose
// trimmed text is exactly the given string
func TextEquals(tag, text string) Candidate {
	return Candidate{
		Kind: KindXPath,
		Expr: fmt.Sprintf("//%s[normalize-space()=%s]", tag, xpathLiteral(text)),
	}
}

// Selector compiles the candidate into the selector string the session understands
func (c Candidate) Selector() string {
	switch c.Kind {
	case KindID:
		return "#" + c.Expr
	default:
		return c.Expr
	}
}

// xpathLiteral quotes a string for use in an XPath expression. XPath 1.0 has
// no escape syntax, so strings holding both quote characters need concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+part+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// FallbackClicker clicks page elements through an ordered candidate list.
// A native click that fails falls back to a script click before the next
// candidate is tried. The outcome is a boolean; candidate failures before a
// success are not reported.
type FallbackClicker struct {
	session Session
	log     *logger.Logger

	// WaitTimeout bounds the visibility wait per candidate
	WaitTimeout time.Duration
	// ScrollPause is the pause between scrolling and clicking
	ScrollPause time.Duration
	// SettleDelay is the pause after a successful click
	SettleDelay time.Duration
}

// NewFallbackClicker creates a clicker over the session
func NewFallbackClicker(session Session, waitTimeout time.Duration) *FallbackClicker {
	return &FallbackClicker{
		session:     session,
		log:         logger.ForBrowser(),
		WaitTimeout: waitTimeout,
		ScrollPause: 500 * time.Millisecond,
		SettleDelay: 2 * time.Second,
	}
}

// ClickAny tries each candidate in order and reports whether any click landed
func (f *FallbackClicker) ClickAny(target string, candidates []Candidate) bool {
	for _, cand := range candidates {
		sel := cand.Selector()
		log := f.log.WithField("target", target).WithField("selector", sel)

		if err := f.session.WaitVisible(sel, f.WaitTimeout); err != nil {
			log.Debug().Err(err).Msg("Candidate not visible")
			continue
		}
		if err := f.session.ScrollIntoView(sel); err != nil {
			log.Debug().Err(err).Msg("Scroll failed")
		}
		f.session.Sleep(f.ScrollPause)

		if err := f.session.Click(sel, f.WaitTimeout); err != nil {
			log.Debug().Err(err).Msg("Native click failed, trying script click")
			if jsErr := f.session.ClickJS(sel); jsErr != nil {
				log.Debug().Err(jsErr).Msg("Script click failed")
				continue
			}
		}

		f.session.Sleep(f.SettleDelay)
		log.Debug().Msg("Clicked")
		return true
	}

	f.log.Warn().
		Str("target", target).
		Int("candidates", len(candidates)).
		Msg("All locator candidates failed")
	return false
}
