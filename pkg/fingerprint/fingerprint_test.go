package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"scheme and trailing slash stripped", "HTTPS://Foo.com/Bar/", "foo.com/bar"},
		{"plain http", "http://foo.com/bar", "foo.com/bar"},
		{"www stripped", "https://www.foo.com", "foo.com"},
		{"query dropped", "https://foo.com/bar?utm_source=x", "foo.com/bar"},
		{"fragment dropped", "https://foo.com/bar#contact", "foo.com/bar"},
		{"no scheme at all", "foo.com/bar", "foo.com/bar"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.raw))
		})
	}
}

func TestKeys_Deterministic(t *testing.T) {
	a := Fields{Website: "HTTPS://Foo.com/Bar/"}
	b := Fields{Website: "https://foo.com/bar"}
	assert.Equal(t, a.Keys(), b.Keys())
	assert.Equal(t, []string{"w:foo.com/bar"}, a.Keys())
}

func TestKeys_Order(t *testing.T) {
	f := Fields{
		Name:       "  Bella   Vista  Pizzeria ",
		Website:    "https://bellavista.example",
		SocialURL:  "https://facebook.com/bellavista/",
		Phone:      "+1 (555) 010-2233",
		LocationID: intPtr(7),
	}

	assert.Equal(t, []string{
		"w:bellavista.example",
		"f:facebook.com/bellavista",
		"p:15550102233",
		"nl:bella vista pizzeria:7",
	}, f.Keys())
}

func TestKeys_PhoneTooShort(t *testing.T) {
	f := Fields{Phone: "123-456"}
	assert.Empty(t, f.Keys(), "6 digits is below the phone signal floor")

	f = Fields{Phone: "123-45-67"}
	assert.Equal(t, []string{"p:11234567"}, f.Keys())
}

func TestKeys_PhoneCountryPrefixInsensitive(t *testing.T) {
	// Imports carry the same number with and without the +1 prefix; both
	// spellings must land on one key or dedupe splits the pair.
	withPrefix := Fields{Phone: "+1 (555) 010-2233"}
	bare := Fields{Phone: "555-010-2233"}
	assert.Equal(t, withPrefix.Keys(), bare.Keys())
	assert.Equal(t, []string{"p:15550102233"}, bare.Keys())
}

func TestCanonicalPhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"e164", "+15550102233", "15550102233"},
		{"national format", "(555) 010-2233", "15550102233"},
		{"dotted", "555.010.2233", "15550102233"},
		{"leading country digit", "1 555 010 2233", "15550102233"},
		{"too short", "123-456", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalPhone(tt.raw))
		})
	}
}

func TestKeys_NameNeedsLocation(t *testing.T) {
	noLoc := Fields{Name: "Corner Cafe"}
	assert.Empty(t, noLoc.Keys(), "name alone is not an identity key")

	withLoc := Fields{Name: "Corner Cafe", LocationID: intPtr(3)}
	assert.Equal(t, []string{"nl:corner cafe:3"}, withLoc.Keys())
}

func TestKeys_NoSignal(t *testing.T) {
	assert.Empty(t, Fields{}.Keys())
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "15550102233", Digits("+1 (555) 010-2233"))
	assert.Equal(t, "", Digits("no digits here"))
}
