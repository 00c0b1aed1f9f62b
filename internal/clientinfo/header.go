// Package clientinfo identifies storefront clients from the Storefront-Client header,
// enforces per-app minimum versions and exposes the back-office pricing preview.
//
// Header format (RFC 8941 Dictionary):
//
//	Storefront-Client: app="web", version="2.4.0"
//	Storefront-Client: app=admin, version="1.2.0", preview=1767225600
package clientinfo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
)

// HeaderName is the request header carrying client identity.
const HeaderName = "Storefront-Client"

// AdminApp is the only app allowed to request a pricing preview.
const AdminApp = "admin"

// Info identifies a client.
type Info struct {
	App     string
	Version string
	// Preview is the instant the admin wants offers evaluated at. Nil for every
	// other app.
	Preview *time.Time
}

// ParseHeader parses a Storefront-Client header value.
//
// Examples:
//   - app="web", version="2.4.0" → {web 2.4.0}
//   - app=ios, version="3.0.1";build=77 → {ios 3.0.1} (params ignored)
//
// Returns error if header is empty, malformed, or missing app.
func ParseHeader(header string) (Info, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Info{}, errors.New("empty Storefront-Client header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Info{}, fmt.Errorf("invalid Storefront-Client header: %w", err)
	}

	app, err := stringMember(dict, "app")
	if err != nil {
		return Info{}, err
	}
	if app == "" {
		return Info{}, errors.New("app key not found in Storefront-Client header")
	}
	info := Info{App: app}

	if info.Version, err = stringMember(dict, "version"); err != nil {
		return Info{}, err
	}

	if member, ok := dict.Get("preview"); ok {
		item, ok := member.(httpsfv.Item)
		if !ok {
			return Info{}, errors.New("preview value must be an item")
		}
		secs, ok := item.Value.(int64)
		if !ok {
			return Info{}, errors.New("preview value must be an integer")
		}
		if app == AdminApp {
			at := time.Unix(secs, 0).UTC()
			info.Preview = &at
		}
	}

	return info, nil
}

// stringMember reads a string or token member. Missing keys yield "".
func stringMember(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}
	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s value must be an item", key)
	}
	switch v := item.Value.(type) {
	case string:
		return v, nil
	case httpsfv.Token:
		return string(v), nil
	default:
		return "", fmt.Errorf("%s value must be a string", key)
	}
}
