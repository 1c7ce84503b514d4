package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single homepage probe.
	DefaultTimeout = 5 * time.Second

	// maxBodyBytes caps how much of a homepage we read looking for
	// contact affordances.
	maxBodyBytes = 256 * 1024
)

// Prober fetches lead homepages for heuristic scoring. An unreachable
// site surfaces as an error; callers treat that as a signal, not a failure.
type Prober struct {
	httpClient *http.Client
}

// NewProber creates a homepage prober with the given timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchHomepage retrieves homepage HTML for a website URL, reading at
// most maxBodyBytes of the response body.
func (p *Prober) FetchHomepage(ctx context.Context, rawURL string) (string, error) {
	url := rawURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building homepage request: %w", err)
	}
	req.Header.Set("User-Agent", "leadcrm-prober/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching homepage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("homepage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading homepage body: %w", err)
	}
	return string(body), nil
}

// contactMarkers are lowercase substrings whose presence in a homepage
// indicates a visitor can book or get in touch without leaving the site.
var contactMarkers = []string{
	"contact",
	"contacto",
	"book now",
	"book online",
	"booking",
	"schedule",
	"appointment",
	"reservar",
	"agendar",
	"mailto:",
	"tel:",
	"get a quote",
	"request a quote",
	"calendly.com",
}

// HasContactAffordance reports whether homepage HTML contains a
// booking or contact marker.
func HasContactAffordance(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range contactMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
