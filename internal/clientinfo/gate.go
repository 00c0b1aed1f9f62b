package clientinfo

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Gate rejects clients older than a per-app minimum version.
type Gate struct {
	minimum map[string]string
}

// NewGate validates and stores minimum versions keyed by app.
// Versions may be written with or without the leading "v".
func NewGate(minimum map[string]string) (*Gate, error) {
	g := &Gate{minimum: make(map[string]string, len(minimum))}
	for app, v := range minimum {
		cv := canonical(v)
		if !semver.IsValid(cv) {
			return nil, fmt.Errorf("invalid minimum version %q for app %q", v, app)
		}
		g.minimum[app] = cv
	}
	return g, nil
}

// Check returns the required minimum when info is below it.
// Apps without a configured minimum always pass. A missing or unparseable
// version fails any configured minimum.
func (g *Gate) Check(info Info) (minVersion string, ok bool) {
	if g == nil {
		return "", true
	}
	required, configured := g.minimum[info.App]
	if !configured {
		return "", true
	}
	v := canonical(info.Version)
	if !semver.IsValid(v) || semver.Compare(v, required) < 0 {
		return required, false
	}
	return "", true
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
