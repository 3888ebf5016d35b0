package schema

import (
	"context"
	"sort"
)

// Column describes one column as reported by the database engine.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// Description maps table name to its columns in engine order. It reflects
// the live database at call time; providers re-introspect per call.
type Description map[string][]Column

// Tables returns the table names in sorted order, for deterministic
// serialization into prompts.
func (d Description) Tables() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d Description) HasTable(name string) bool {
	_, ok := d[name]
	return ok
}

type Provider interface {
	Describe(ctx context.Context) (Description, error)
}
