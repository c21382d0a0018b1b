package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewProfile(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	p, err := NewProfile("  code-review  ", " Code Review ", " Review the diff. ", now)
	if err != nil {
		t.Fatalf("NewProfile() error = %v", err)
	}
	if p.ID != "code-review" {
		t.Fatalf("unexpected id %q", p.ID)
	}
	if p.Name != "Code Review" {
		t.Fatalf("unexpected name %q", p.Name)
	}
	if p.Template != "Review the diff." {
		t.Fatalf("unexpected template %q", p.Template)
	}
	if !p.CreatedAt.Equal(now) || !p.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected timestamps %v/%v", p.CreatedAt, p.UpdatedAt)
	}
}

func TestNewProfileInvalid(t *testing.T) {
	now := time.Now()
	if _, err := NewProfile("Bad_ID", "name", "body", now); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

// TestValidateProfileFields verifies the kebab-case id rule and the field
// length limits, with one ordered message per violation.
func TestValidateProfileFields(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		fieldName string
		template  string
		wantValid bool
		wantErrs  int
	}{
		{name: "valid", id: "code-review-2", fieldName: "Code Review", template: "body", wantValid: true},
		{name: "single segment", id: "review", fieldName: "n", template: "t", wantValid: true},
		{name: "empty id", id: "", fieldName: "n", template: "t", wantErrs: 1},
		{name: "uppercase id", id: "Code-Review", fieldName: "n", template: "t", wantErrs: 1},
		{name: "underscore id", id: "code_review", fieldName: "n", template: "t", wantErrs: 1},
		{name: "leading hyphen", id: "-code", fieldName: "n", template: "t", wantErrs: 1},
		{name: "trailing hyphen", id: "code-", fieldName: "n", template: "t", wantErrs: 1},
		{name: "double hyphen", id: "code--review", fieldName: "n", template: "t", wantErrs: 1},
		{name: "id too long", id: strings.Repeat("a", 51), fieldName: "n", template: "t", wantErrs: 1},
		{name: "id at limit", id: strings.Repeat("a", 50), fieldName: "n", template: "t", wantValid: true},
		{name: "empty name", id: "ok", fieldName: "", template: "t", wantErrs: 1},
		{name: "name too long", id: "ok", fieldName: strings.Repeat("n", 101), template: "t", wantErrs: 1},
		{name: "empty template", id: "ok", fieldName: "n", template: "", wantErrs: 1},
		{name: "template too long", id: "ok", fieldName: "n", template: strings.Repeat("t", 10001), wantErrs: 1},
		{name: "everything empty", id: "", fieldName: "", template: "", wantErrs: 3},
	}

	for _, tc := range tests {
		result := ValidateProfileFields(tc.id, tc.fieldName, tc.template)
		if result.Valid != tc.wantValid {
			t.Fatalf("%s: Valid = %v, want %v (errors: %v)", tc.name, result.Valid, tc.wantValid, result.Errors)
		}
		if !tc.wantValid && len(result.Errors) != tc.wantErrs {
			t.Fatalf("%s: got %d errors %v, want %d", tc.name, len(result.Errors), result.Errors, tc.wantErrs)
		}
		if tc.wantValid && len(result.Errors) != 0 {
			t.Fatalf("%s: expected no errors, got %v", tc.name, result.Errors)
		}
	}
}

func TestProfileUpdateDetails(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	p, err := NewProfile("code-review", "Code Review", "old body", now)
	if err != nil {
		t.Fatalf("NewProfile() error = %v", err)
	}

	later := now.Add(time.Hour)
	if err := p.UpdateDetails("Deep Review", "new body", later); err != nil {
		t.Fatalf("UpdateDetails() error = %v", err)
	}
	if p.Name != "Deep Review" || p.Template != "new body" {
		t.Fatalf("unexpected fields %q/%q", p.Name, p.Template)
	}
	if !p.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt = %v, want %v", p.UpdatedAt, later)
	}
	if !p.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt moved to %v", p.CreatedAt)
	}

	if err := p.UpdateDetails("", "body", later); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if p.Name != "Deep Review" {
		t.Fatalf("failed update mutated name to %q", p.Name)
	}
}
