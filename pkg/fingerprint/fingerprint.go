// Package fingerprint derives normalized identity keys from a lead's contact
// fields. Two records sharing any key are treated as the same real-world
// business by the duplicate resolver and the merge engine.
package fingerprint

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/prospectra/leadcrm/pkg/models"
)

// MinPhoneDigits is the shortest digit run accepted as a phone signal.
const MinPhoneDigits = 7

// phoneRegion is the parsing hint for numbers without a country prefix.
const phoneRegion = "US"

// Fields is the subset of lead fields that carry identity signal. All fields
// are optional; a record with no usable signal yields no keys at all.
type Fields struct {
	Name       string
	Website    string
	SocialURL  string
	Phone      string
	LocationID *int
}

// FromLead extracts fingerprint fields from a stored lead.
func FromLead(l *models.Lead) Fields {
	return Fields{
		Name:       l.Name,
		Website:    l.Website,
		SocialURL:  l.SocialURL,
		Phone:      l.Phone,
		LocationID: l.LocationID,
	}
}

// FromInput extracts fingerprint fields from an insert candidate.
func FromInput(in models.LeadInput) Fields {
	return Fields{
		Name:       in.Name,
		Website:    in.Website,
		SocialURL:  in.SocialURL,
		Phone:      in.Phone,
		LocationID: in.LocationID,
	}
}

// Keys returns the ordered identity keys for the fields. The order is load
// bearing: the merge engine picks the first already-claimed key as the merge
// target, so website beats social beats phone beats name+location.
func (f Fields) Keys() []string {
	keys := make([]string, 0, 4)

	if w := NormalizeURL(f.Website); w != "" {
		keys = append(keys, "w:"+w)
	}
	if s := NormalizeURL(f.SocialURL); s != "" {
		keys = append(keys, "f:"+s)
	}
	if p := CanonicalPhone(f.Phone); p != "" {
		keys = append(keys, "p:"+p)
	}
	if n := NormalizeName(f.Name); n != "" && f.LocationID != nil {
		keys = append(keys, fmt.Sprintf("nl:%s:%d", n, *f.LocationID))
	}

	return keys
}

// NormalizeURL lower-cases a URL, drops the scheme, query and fragment,
// strips a leading "www." and trailing slashes. The result compares equal for
// the usual cosmetic variants of the same address.
func NormalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if u == "" {
		return ""
	}

	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	u = strings.TrimRight(u, "/")

	return u
}

// CanonicalPhone derives a country-prefix-insensitive phone key: calling
// code plus national number when the number parses, the raw digit run
// otherwise. "+1 (555) 010-2233" and "555-010-2233" map to the same key.
// Runs shorter than MinPhoneDigits yield "".
func CanonicalPhone(raw string) string {
	d := Digits(raw)
	if len(d) < MinPhoneDigits {
		return ""
	}

	parsed, err := phonenumbers.Parse(raw, phoneRegion)
	if err != nil {
		return d
	}
	return fmt.Sprintf("%d%d", parsed.GetCountryCode(), parsed.GetNationalNumber())
}

// Digits strips everything but decimal digits from a phone number.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName lower-cases a business name and collapses runs of whitespace
// to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
