package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Canonical column names, in display order.
const (
	FieldAgentName      = "Agent name"
	FieldWebsite        = "Website"
	FieldEmail          = "Email"
	FieldListingCount   = "Listing count"
	FieldSoldCount      = "Sold count"
	FieldOfficePhone    = "Office Phone"
	FieldMobilePhones   = "Mobile Phones"
	FieldAreasServiced  = "Areas serviced"
	FieldZipCodes       = "Zip codes serviced"
	FieldOfficeName     = "Office / Company name"
	FieldCompanyWebsite = "Company Website"
	FieldReviewCount    = "Review count"
	FieldAgentPhoto     = "Agent Photo"
)

// FieldOrder is the canonical field order used for CSV columns and JSON keys.
var FieldOrder = []string{
	FieldAgentName,
	FieldWebsite,
	FieldEmail,
	FieldListingCount,
	FieldSoldCount,
	FieldOfficePhone,
	FieldMobilePhones,
	FieldAreasServiced,
	FieldZipCodes,
	FieldOfficeName,
	FieldCompanyWebsite,
	FieldReviewCount,
	FieldAgentPhoto,
}

// RawAgent holds one agent card exactly as extracted from a results page.
// A nil field means no selector matched it.
type RawAgent struct {
	Name                *string
	ProfileURL          *string
	Email               *string
	ListingCount        *int
	SoldCount           *int
	OfficePhone         *string
	MobilePhonesRaw     *string
	AreasServicedRaw    *string
	ZipCodesServicedRaw *string
	OfficeName          *string
	CompanyWebsite      *string
	ReviewCount         *int
	PhotoURL            *string

	// ZipCodeContext is the postal code of the request that produced the card.
	ZipCodeContext *string
}

// Agent is the normalized record written by the exporters.
type Agent struct {
	Name             string
	Website          string
	Email            string
	ListingCount     int
	SoldCount        int
	OfficePhone      string
	MobilePhones     string
	AreasServiced    string
	ZipCodesServiced string
	OfficeName       string
	CompanyWebsite   *string
	ReviewCount      int
	PhotoURL         *string

	// Extra holds keys outside the canonical schema. Nothing in the scrape
	// pipeline sets it; exporters still carry it through.
	Extra map[string]string
}

// Column is one named value of an Agent.
type Column struct {
	Name  string
	Value any
}

// Columns returns the canonical fields in FieldOrder followed by Extra keys
// in sorted order. Nullable fields are returned as nil when absent.
func (a Agent) Columns() []Column {
	cols := []Column{
		{FieldAgentName, a.Name},
		{FieldWebsite, a.Website},
		{FieldEmail, a.Email},
		{FieldListingCount, a.ListingCount},
		{FieldSoldCount, a.SoldCount},
		{FieldOfficePhone, a.OfficePhone},
		{FieldMobilePhones, a.MobilePhones},
		{FieldAreasServiced, a.AreasServiced},
		{FieldZipCodes, a.ZipCodesServiced},
		{FieldOfficeName, a.OfficeName},
		{FieldCompanyWebsite, nullable(a.CompanyWebsite)},
		{FieldReviewCount, a.ReviewCount},
		{FieldAgentPhoto, nullable(a.PhotoURL)},
	}
	for _, k := range a.extraKeys() {
		cols = append(cols, Column{k, a.Extra[k]})
	}
	return cols
}

// Strings returns Columns as a name to cell-text map. Nil values become "".
func (a Agent) Strings() map[string]string {
	out := make(map[string]string, len(FieldOrder)+len(a.Extra))
	for _, c := range a.Columns() {
		switch v := c.Value.(type) {
		case nil:
			out[c.Name] = ""
		case string:
			out[c.Name] = v
		case int:
			out[c.Name] = strconv.Itoa(v)
		default:
			out[c.Name] = fmt.Sprint(v)
		}
	}
	return out
}

func (a Agent) extraKeys() []string {
	keys := make([]string, 0, len(a.Extra))
	for k := range a.Extra {
		if IsCanonical(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON writes the canonical keys in FieldOrder, then any extra keys.
// HTML characters and non-ASCII text are written literally. An outer
// json.Marshal re-escapes HTML; encode with an Encoder and SetEscapeHTML(false)
// to keep it. U+2028 and U+2029 are always escaped as \u2028 and \u2029.
func (a Agent) MarshalJSON() ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte('{')
	for i, c := range a.Columns() {
		if i > 0 {
			out.WriteByte(',')
		}
		if err := encodeValue(&out, c.Name); err != nil {
			return nil, err
		}
		out.WriteByte(':')
		if err := encodeValue(&out, c.Value); err != nil {
			return nil, err
		}
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

func encodeValue(out *bytes.Buffer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	out.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return nil
}

type agentJSON struct {
	Name             string  `json:"Agent name"`
	Website          string  `json:"Website"`
	Email            string  `json:"Email"`
	ListingCount     int     `json:"Listing count"`
	SoldCount        int     `json:"Sold count"`
	OfficePhone      string  `json:"Office Phone"`
	MobilePhones     string  `json:"Mobile Phones"`
	AreasServiced    string  `json:"Areas serviced"`
	ZipCodesServiced string  `json:"Zip codes serviced"`
	OfficeName       string  `json:"Office / Company name"`
	CompanyWebsite   *string `json:"Company Website"`
	ReviewCount      int     `json:"Review count"`
	PhotoURL         *string `json:"Agent Photo"`
}

// UnmarshalJSON reads the canonical keys and collects unknown string-valued
// keys into Extra.
func (a *Agent) UnmarshalJSON(data []byte) error {
	var known agentJSON
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*a = Agent{
		Name:             known.Name,
		Website:          known.Website,
		Email:            known.Email,
		ListingCount:     known.ListingCount,
		SoldCount:        known.SoldCount,
		OfficePhone:      known.OfficePhone,
		MobilePhones:     known.MobilePhones,
		AreasServiced:    known.AreasServiced,
		ZipCodesServiced: known.ZipCodesServiced,
		OfficeName:       known.OfficeName,
		CompanyWebsite:   known.CompanyWebsite,
		ReviewCount:      known.ReviewCount,
		PhotoURL:         known.PhotoURL,
	}

	for k, raw := range all {
		if IsCanonical(k) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
		}
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		a.Extra[k] = s
	}
	return nil
}

// IsCanonical reports whether name is one of FieldOrder.
func IsCanonical(name string) bool {
	for _, f := range FieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
