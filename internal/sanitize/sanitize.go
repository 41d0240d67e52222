// Package sanitize produces canonical, tracking-free versions of URLs.
package sanitize

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL signals that the input is not an absolute, parseable URL.
var ErrInvalidURL = errors.New("invalid URL")

// trackingParams is the exact, case-sensitive denylist of query parameter
// names that are stripped from every cleaned URL.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"msclkid":      {},
	"twclid":       {},
	"igshid":       {},
	"mc_eid":       {},
	"mc_cid":       {},
	"_ga":          {},
	"ref":          {},
	"referrer":     {},
}

// Clean parses raw as an absolute URL and returns it with all denylisted
// query parameters and the fragment removed. Remaining parameters keep
// their original relative order; scheme, host, port and path are untouched.
// Clean is idempotent and has no side effects.
func Clean(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = stripTracking(u.RawQuery)
	if u.RawQuery == "" {
		u.ForceQuery = false
	}

	return u.String(), nil
}

// stripTracking drops denylisted pairs from a raw query string while
// preserving the original encoding and order of everything else.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		name := pair
		if i := strings.Index(pair, "="); i >= 0 {
			name = pair[:i]
		}
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if _, denied := trackingParams[name]; denied {
			continue
		}
		kept = append(kept, pair)
	}

	return strings.Join(kept, "&")
}
