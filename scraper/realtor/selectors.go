package realtor

import (
	"regexp"
	"strconv"
	"strings"
)

// Element is the minimal view of an HTML node the extraction rules need.
type Element interface {
	// First returns the first descendant matching selector.
	First(selector string) (Element, bool)
	// Text returns the concatenated text of the node and its descendants.
	Text() string
	// Attr returns the value of the named attribute.
	Attr(name string) (string, bool)
}

// Strategy reads one value from a card: the first element matching Selector,
// then its text or the attribute named Attr.
type Strategy struct {
	Selector string
	Attr     string
	// Raw keeps surrounding whitespace of text values.
	Raw bool
	// Transform post-processes the value; returning false rejects the match.
	Transform func(string) (string, bool)
}

// Apply runs the strategy against card.
func (s Strategy) Apply(card Element) (string, bool) {
	el, ok := card.First(s.Selector)
	if !ok {
		return "", false
	}

	var value string
	if s.Attr != "" {
		v, ok := el.Attr(s.Attr)
		if !ok {
			return "", false
		}
		value = v
	} else {
		value = el.Text()
		if !s.Raw {
			value = strings.TrimSpace(value)
		}
	}

	if s.Transform != nil {
		return s.Transform(value)
	}
	return value, true
}

// Rule is an ordered list of strategies; the first that matches wins.
type Rule []Strategy

// Resolve returns the first matching value, or nil when no strategy matches.
func (r Rule) Resolve(card Element) *string {
	for _, s := range r {
		if v, ok := s.Apply(card); ok {
			return &v
		}
	}
	return nil
}

// ResolveInt resolves a value and keeps only its digits. Nil when nothing
// matched or the match held no digits.
func (r Rule) ResolveInt(card Element) *int {
	return extractInt(r.Resolve(card))
}

var nonDigitRegexp = regexp.MustCompile(`\D`)

func extractInt(text *string) *int {
	if text == nil {
		return nil
	}
	digits := nonDigitRegexp.ReplaceAllString(*text, "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

func text(selectors ...string) Rule {
	rule := make(Rule, 0, len(selectors))
	for _, sel := range selectors {
		rule = append(rule, Strategy{Selector: sel})
	}
	return rule
}

func attr(name string, selectors ...string) Rule {
	rule := make(Rule, 0, len(selectors))
	for _, sel := range selectors {
		rule = append(rule, Strategy{Selector: sel, Attr: name})
	}
	return rule
}

func stripMailto(v string) (string, bool) {
	v = strings.TrimSpace(strings.TrimPrefix(v, "mailto:"))
	if i := strings.IndexByte(v, '?'); i >= 0 {
		v = v[:i]
	}
	return v, v != ""
}

func nonEmpty(v string) (string, bool) {
	return v, v != ""
}

// Card selectors. The fallbacks are matched together, in document order,
// only when no primary card is present.
var (
	cardSelector          = ".agent-card"
	fallbackCardSelectors = []string{"[data-testid*='agent-card']", "article"}
)

// nameSelectors locate the agent name; the matched element's href doubles as
// the profile URL.
var nameSelectors = []string{".agent-name", "a.agent-name", "a[data-testid='agent-name']"}

var profileLinkRule = attr("href", "a.agent-profile-link", "a[href*='realestateagents']")

var (
	emailRule = Rule{
		{Selector: "a[href^='mailto:']", Transform: nonEmpty},
		{Selector: "a[href^='mailto:']", Attr: "href", Transform: stripMailto},
	}
	listingCountRule   = text(".listing-count")
	soldCountRule      = text(".sold-count")
	officePhoneRule    = text(".office-phone")
	mobilePhonesRule   = text(".mobile-phone", ".mobile-phones")
	areasServicedRule  = Rule{{Selector: ".areas-serviced", Raw: true}}
	zipCodesRule       = text(".zip-codes-serviced", ".zip-codes")
	officeNameRule     = text(".office-name", ".company-name")
	companyWebsiteRule = attr("href", ".company-website[href]")
	reviewCountRule    = text(".review-count", ".reviews")
	photoRule          = attr("src", "img.agent-photo", "img[data-testid='agent-photo']")
)
