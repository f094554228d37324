package fetch

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Mux dispatches locators to fetchers by scheme. Locators without a scheme
// go to the "file" fetcher.
type Mux struct {
	fetchers map[string]Fetcher
}

// NewMux returns an empty mux.
func NewMux() *Mux {
	return &Mux{fetchers: make(map[string]Fetcher)}
}

// Handle registers f for a scheme, replacing any previous registration.
func (m *Mux) Handle(scheme string, f Fetcher) {
	m.fetchers[strings.ToLower(scheme)] = f
}

// Schemes lists the registered schemes.
func (m *Mux) Schemes() []string {
	out := make([]string, 0, len(m.fetchers))
	for s := range m.fetchers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Fetch routes the locator.
func (m *Mux) Fetch(ctx context.Context, locator string) (*Image, error) {
	locator = strings.TrimSpace(locator)
	scheme := Scheme(locator)
	f, ok := m.fetchers[scheme]
	if !ok {
		return nil, fail(locator, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme))
	}
	return f.Fetch(ctx, locator)
}

// Scheme returns the lower-cased scheme of a locator, "file" for bare paths.
func Scheme(locator string) string {
	if len(locator) >= 5 && strings.EqualFold(locator[:5], "data:") {
		return "data"
	}
	u, err := url.Parse(locator)
	// single letters are Windows drive names
	if err != nil || len(u.Scheme) <= 1 {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}
