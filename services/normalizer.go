package services

import (
	"strings"

	"realtor-agents-scraper/models"
)

// Normalizer maps raw agent cards onto the canonical schema. It holds no
// state; the same input always produces the same output.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts one raw record.
func (n *Normalizer) Normalize(raw models.RawAgent) models.Agent {
	return models.Agent{
		Name:             orEmpty(raw.Name),
		Website:          orEmpty(raw.ProfileURL),
		Email:            orEmpty(raw.Email),
		ListingCount:     orZero(raw.ListingCount),
		SoldCount:        orZero(raw.SoldCount),
		OfficePhone:      orEmpty(raw.OfficePhone),
		MobilePhones:     splitJoin(orEmpty(raw.MobilePhonesRaw)),
		AreasServiced:    normaliseText(orEmpty(raw.AreasServicedRaw)),
		ZipCodesServiced: cleanZipCodes(raw.ZipCodesServicedRaw, raw.ZipCodeContext),
		OfficeName:       orEmpty(raw.OfficeName),
		CompanyWebsite:   copyPtr(raw.CompanyWebsite),
		ReviewCount:      orZero(raw.ReviewCount),
		PhotoURL:         copyPtr(raw.PhotoURL),
	}
}

// NormalizeAll converts raw records in order.
func (n *Normalizer) NormalizeAll(raw []models.RawAgent) []models.Agent {
	out := make([]models.Agent, 0, len(raw))
	for _, r := range raw {
		out = append(out, n.Normalize(r))
	}
	return out
}

// splitJoin splits on commas and semicolons, trims each part, drops empty
// parts and rejoins with ", ".
func splitJoin(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// cleanZipCodes prefers the serviced-zip list and falls back to the zip code
// the card was fetched for.
func cleanZipCodes(raw, context *string) string {
	if raw != nil && strings.TrimSpace(*raw) != "" {
		return splitJoin(*raw)
	}
	return orEmpty(context)
}

// normaliseText collapses internal whitespace, newlines included.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

func copyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
