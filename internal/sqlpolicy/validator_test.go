package sqlpolicy

import (
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/schema"
)

var testSchema = schema.Description{
	"customers": {{Name: "id", Type: "integer", PrimaryKey: true}},
	"orders":    {{Name: "id", Type: "integer", PrimaryKey: true}},
}

func TestValidateRejectsNonSelectStatements(t *testing.T) {
	statements := []string{
		"DELETE FROM customers",
		"UPDATE customers SET name='x'",
		"INSERT INTO customers VALUES (1)",
		"  drop table customers",
		"WITH x AS (SELECT 1) SELECT * FROM x",
		"",
	}
	validator := Validator{}
	for _, stmt := range statements {
		result := validator.Validate(stmt, testSchema)
		if result.Accepted {
			t.Fatalf("Validate(%q) accepted, want rejection", stmt)
		}
		if result.Reason == "" {
			t.Fatalf("Validate(%q) rejection carries no reason", stmt)
		}
	}
}

func TestValidateRejectsForbiddenKeywords(t *testing.T) {
	validator := Validator{}
	tests := []struct {
		sql     string
		keyword string
	}{
		{"SELECT * FROM t; DROP TABLE t", "DROP"},
		{"SELECT 1; delete from customers", "DELETE"},
		{"SELECT 1; TRUNCATE customers", "TRUNCATE"},
		{"SELECT 1; GRANT ALL ON customers TO public", "GRANT"},
	}
	for _, tt := range tests {
		result := validator.Validate(tt.sql, testSchema)
		if result.Accepted {
			t.Fatalf("Validate(%q) accepted, want rejection", tt.sql)
		}
		if !strings.Contains(result.Reason, tt.keyword) {
			t.Fatalf("Validate(%q) reason = %q, want mention of %q", tt.sql, result.Reason, tt.keyword)
		}
	}
}

func TestValidateIgnoresKeywordsInsideIdentifiers(t *testing.T) {
	validator := Validator{}
	statements := []string{
		"SELECT dropped_at FROM customers",
		"SELECT last_update FROM customers",
		"SELECT inserted, updates FROM audit_log",
		"SELECT * FROM granted_permissions",
	}
	for _, stmt := range statements {
		result := validator.Validate(stmt, testSchema)
		if !result.Accepted {
			t.Fatalf("Validate(%q) rejected with %q, want accept", stmt, result.Reason)
		}
	}
}

func TestValidateAcceptsPlainSelect(t *testing.T) {
	validator := Validator{}
	result := validator.Validate("SELECT COUNT(*) FROM customers", testSchema)
	if !result.Accepted {
		t.Fatalf("rejected with %q", result.Reason)
	}
	if result.Reason != "" {
		t.Fatalf("accepted result carries reason %q", result.Reason)
	}
}

func TestTableCheckRequiresKnownTable(t *testing.T) {
	validator := Validator{TableCheck: true}

	result := validator.Validate("SELECT * FROM customers", testSchema)
	if !result.Accepted {
		t.Fatalf("known table rejected with %q", result.Reason)
	}

	result = validator.Validate("SELECT * FROM nonexistent_table", testSchema)
	if result.Accepted {
		t.Fatal("unknown table accepted with table check enabled")
	}

	// Disabled check lets unknown tables through; execution decides.
	result = Validator{}.Validate("SELECT * FROM nonexistent_table", testSchema)
	if !result.Accepted {
		t.Fatalf("unknown table rejected with check disabled: %q", result.Reason)
	}
}

func TestValidateCaseInsensitiveTableCheck(t *testing.T) {
	validator := Validator{TableCheck: true}
	result := validator.Validate("select id from Customers", testSchema)
	if !result.Accepted {
		t.Fatalf("rejected with %q", result.Reason)
	}
}
