package realtor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"realtor-agents-scraper/models"
)

// selection adapts a goquery selection to Element.
type selection struct {
	s *goquery.Selection
}

func (e selection) First(selector string) (Element, bool) {
	found := e.s.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return selection{found}, true
}

func (e selection) Text() string {
	return e.s.Text()
}

func (e selection) Attr(name string) (string, bool) {
	return e.s.Attr(name)
}

// ParseAgents extracts the agent cards of one results page. It never fails:
// unparseable markup yields no records and missing fields stay nil.
func ParseAgents(html string, zipCode string) []models.RawAgent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []models.RawAgent{}
	}

	cards := doc.Find(cardSelector)
	if cards.Length() == 0 {
		cards = doc.Find(strings.Join(fallbackCardSelectors, ", "))
	}

	agents := make([]models.RawAgent, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		agents = append(agents, parseCard(selection{card}, zipCode))
	})
	return agents
}

func parseCard(card Element, zipCode string) models.RawAgent {
	raw := models.RawAgent{
		Email:               emailRule.Resolve(card),
		ListingCount:        listingCountRule.ResolveInt(card),
		SoldCount:           soldCountRule.ResolveInt(card),
		OfficePhone:         officePhoneRule.Resolve(card),
		MobilePhonesRaw:     mobilePhonesRule.Resolve(card),
		AreasServicedRaw:    areasServicedRule.Resolve(card),
		ZipCodesServicedRaw: zipCodesRule.Resolve(card),
		OfficeName:          officeNameRule.Resolve(card),
		CompanyWebsite:      companyWebsiteRule.Resolve(card),
		ReviewCount:         reviewCountRule.ResolveInt(card),
		PhotoURL:            photoRule.Resolve(card),
		ZipCodeContext:      &zipCode,
	}

	if nameEl, ok := firstOf(card, nameSelectors); ok {
		name := strings.TrimSpace(nameEl.Text())
		raw.Name = &name
		if href, ok := nameEl.Attr("href"); ok {
			raw.ProfileURL = &href
		}
	}
	if raw.ProfileURL == nil {
		raw.ProfileURL = profileLinkRule.Resolve(card)
	}

	return raw
}

func firstOf(card Element, selectors []string) (Element, bool) {
	for _, sel := range selectors {
		if el, ok := card.First(sel); ok {
			return el, true
		}
	}
	return nil, false
}
