package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/gabrielcapilla/focusguard/internal/domain"
)

var ErrUnknownSite = errors.New("discovery: no adapter for site")

// Resolve returns the adapter whose Match is a substring of hostname.
// Longer matches win; ties are broken by name so the result does not
// depend on configuration order.
func Resolve(sites []domain.SiteAdapter, hostname string) (domain.SiteAdapter, bool) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return domain.SiteAdapter{}, false
	}

	candidates := make([]domain.SiteAdapter, 0, len(sites))
	for _, site := range sites {
		if site.Match != "" && strings.Contains(hostname, strings.ToLower(site.Match)) {
			candidates = append(candidates, site)
		}
	}
	if len(candidates) == 0 {
		return domain.SiteAdapter{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if len(candidates[i].Match) != len(candidates[j].Match) {
			return len(candidates[i].Match) > len(candidates[j].Match)
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates[0], true
}

// ResolveURL resolves the adapter for the host of a media URL.
func ResolveURL(sites []domain.SiteAdapter, rawURL string) (domain.SiteAdapter, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.SiteAdapter{}, fmt.Errorf("discovery: invalid url: %w", err)
	}
	site, ok := Resolve(sites, u.Hostname())
	if !ok {
		return domain.SiteAdapter{}, fmt.Errorf("%w: %q", ErrUnknownSite, u.Hostname())
	}
	return site, nil
}
