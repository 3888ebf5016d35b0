// Package sqlpolicy holds the read-only policy applied to generated SQL
// before execution. The policy is a keyword heuristic, not a parser: it
// is deliberately isolated here so it can later be replaced by an
// AST-based allow-list without touching the pipeline.
package sqlpolicy

import (
	"fmt"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

// Result is the outcome of one validation call. Reason is empty when the
// statement is accepted.
type Result struct {
	Accepted bool
	Reason   string
}

var forbiddenKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "TRUNCATE", "GRANT", "REVOKE",
}

// Validator applies the policy in a fixed order: the SELECT-only gate,
// the mutating-keyword deny list, then (when enabled) an advisory check
// that the statement references at least one known table.
type Validator struct {
	TableCheck bool
}

func (v Validator) Validate(sqlText string, description schema.Description) Result {
	tokens := identTokens(sqlText)
	if len(tokens) == 0 || tokens[0] != "SELECT" {
		return Result{Reason: "only read statements are permitted"}
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = struct{}{}
	}
	for _, keyword := range forbiddenKeywords {
		if _, ok := tokenSet[keyword]; ok {
			return Result{Reason: fmt.Sprintf("query contains forbidden keyword: %s", keyword)}
		}
	}

	if v.TableCheck {
		if !referencesKnownTable(tokenSet, description) {
			return Result{Reason: "query does not reference any known table"}
		}
	}

	return Result{Accepted: true}
}

// referencesKnownTable is simple name containment, not parsing; aliased
// or subquery-heavy SQL can produce false negatives, which is why the
// check is optional.
func referencesKnownTable(tokenSet map[string]struct{}, description schema.Description) bool {
	for _, table := range description.Tables() {
		if _, ok := tokenSet[strings.ToUpper(table)]; ok {
			return true
		}
	}
	return false
}

// identTokens splits the statement into uppercased identifier-like
// tokens. A keyword buried inside an identifier such as dropped_at stays
// part of that identifier and never matches the deny list.
func identTokens(sqlText string) []string {
	upper := strings.ToUpper(sqlText)
	tokens := make([]string, 0, 16)
	start := -1
	for i, r := range upper {
		if isIdentRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, upper[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, upper[start:])
	}
	return tokens
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	default:
		return false
	}
}
