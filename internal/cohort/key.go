package cohort

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultKey names the fallback cohort that unknown keys resolve to.
const DefaultKey = "default"

// ErrMalformedKey is returned by Parse for keys that are not sport.role or
// sport.level.role.
var ErrMalformedKey = errors.New("malformed cohort key")

var segmentRE = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Key is a parsed cohort identifier. Level is optional.
type Key struct {
	Sport string
	Level string
	Role  string
}

// Parse normalizes and splits a cohort key.
func Parse(raw string) (Key, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	parts := strings.Split(norm, ".")
	for _, p := range parts {
		if !segmentRE.MatchString(p) {
			return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, raw)
		}
	}
	switch len(parts) {
	case 2:
		return Key{Sport: parts[0], Role: parts[1]}, nil
	case 3:
		return Key{Sport: parts[0], Level: parts[1], Role: parts[2]}, nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, raw)
}

func (k Key) String() string {
	if k.Level == "" {
		return k.Sport + "." + k.Role
	}
	return k.Sport + "." + k.Level + "." + k.Role
}

// candidates lists the keys to try for k, most specific first.
func (k Key) candidates() []string {
	if k.Level == "" {
		return []string{k.String()}
	}
	return []string{k.String(), Key{Sport: k.Sport, Role: k.Role}.String()}
}
