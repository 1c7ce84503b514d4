package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasContactAffordance(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"contact page link", `<a href="/contact">Contact Us</a>`, true},
		{"booking widget", `<div class="hero">Book Now</div>`, true},
		{"mailto link", `<a href="mailto:hello@acme.test">Email</a>`, true},
		{"tel link", `<a href="tel:+15550101">Call</a>`, true},
		{"calendly embed", `<iframe src="https://calendly.com/acme"></iframe>`, true},
		{"spanish contact", `<a href="/contacto">Contacto</a>`, true},
		{"mixed case", `<a href="/CONTACT">CONTACT</a>`, true},
		{"brochure only", `<h1>Welcome to Acme Plumbing</h1><p>Est. 1982</p>`, false},
		{"empty page", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasContactAffordance(tt.html))
		})
	}
}

func TestFetchHomepage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><a href="/contact">Contact</a></html>`))
	}))
	defer srv.Close()

	p := NewProber(2 * time.Second)
	html, err := p.FetchHomepage(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, HasContactAffordance(html))
}

func TestFetchHomepage_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProber(2 * time.Second)
	_, err := p.FetchHomepage(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchHomepage_Unreachable(t *testing.T) {
	p := NewProber(500 * time.Millisecond)
	_, err := p.FetchHomepage(context.Background(), "http://127.0.0.1:1")
	assert.Error(t, err)
}
