package auth

import (
	"context"
	"fmt"
	"strings"
)

type Identity struct {
	Label string
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

// StaticAPIKeyValidator resolves identities from a fixed key set parsed
// from configuration. Entry format: "key:label", comma separated.
type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	entries := strings.Split(spec, ",")
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:label", entry)
		}
		key := strings.TrimSpace(parts[0])
		label := strings.TrimSpace(parts[1])
		if key == "" || label == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key/label", entry)
		}
		validator.keys[key] = Identity{Label: label}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}
