package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Profile field limits.
const (
	MaxProfileIDLength       = 50
	MaxProfileNameLength     = 100
	MaxProfileTemplateLength = 10000
)

// Profile represents one reusable prompt template keyed by a kebab-case id.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidationResult reports profile field validation as data rather than an
// error. Errors holds ordered, human-readable messages and is empty exactly
// when Valid is true.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateProfileFields checks id, name, and template against the profile
// field rules. Inputs are checked as given; callers normalize first.
func ValidateProfileFields(id, name, template string) ValidationResult {
	var errs []string
	if id == "" {
		errs = append(errs, "profile id is required")
	} else {
		if utf8.RuneCountInString(id) > MaxProfileIDLength {
			errs = append(errs, fmt.Sprintf("profile id exceeds %d characters", MaxProfileIDLength))
		}
		if !isKebabCase(id) {
			errs = append(errs, "profile id must be kebab-case: lowercase letters and digits separated by single hyphens")
		}
	}
	if name == "" {
		errs = append(errs, "profile name is required")
	} else if utf8.RuneCountInString(name) > MaxProfileNameLength {
		errs = append(errs, fmt.Sprintf("profile name exceeds %d characters", MaxProfileNameLength))
	}
	if template == "" {
		errs = append(errs, "profile template is required")
	} else if utf8.RuneCountInString(template) > MaxProfileTemplateLength {
		errs = append(errs, fmt.Sprintf("profile template exceeds %d characters", MaxProfileTemplateLength))
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// NewProfile constructs a validated profile value.
func NewProfile(id, name, template string, now time.Time) (Profile, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	template = strings.TrimSpace(template)
	if result := ValidateProfileFields(id, name, template); !result.Valid {
		return Profile{}, fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(result.Errors, "; "))
	}
	return Profile{
		ID:        id,
		Name:      name,
		Template:  template,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// UpdateDetails replaces the profile's name and template.
func (p *Profile) UpdateDetails(name, template string, now time.Time) error {
	name = strings.TrimSpace(name)
	template = strings.TrimSpace(template)
	if result := ValidateProfileFields(p.ID, name, template); !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(result.Errors, "; "))
	}
	p.Name = name
	p.Template = template
	p.UpdatedAt = now.UTC()
	return nil
}

// isKebabCase reports whether s is lowercase letters and digits separated by
// single hyphens, with no leading or trailing hyphen.
func isKebabCase(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
