package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Lead field names, shared by validation errors, diffs and store columns.
const (
	FieldFullName     = "full_name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldCity         = "city"
	FieldPropertyType = "property_type"
	FieldBHK          = "bhk"
	FieldPurpose      = "purpose"
	FieldBudgetMin    = "budget_min"
	FieldBudgetMax    = "budget_max"
	FieldTimeline     = "timeline"
	FieldSource       = "source"
	FieldNotes        = "notes"
	FieldTags         = "tags"
	FieldStatus       = "status"
)

// Field limits.
const (
	MinFullNameLen = 2
	MaxFullNameLen = 80
	MaxEmailLen    = 100
	MaxNotesLen    = 1000
)

var phonePattern = regexp.MustCompile(`^\d{10,15}$`)

var emailCheck = validator.New()

// fieldErrors accumulates field errors in schema order.
type fieldErrors []FieldError

func (fe *fieldErrors) add(field, msg string) {
	*fe = append(*fe, FieldError{Field: field, Message: msg})
}

func (fe *fieldErrors) required(field string) {
	fe.add(field, field+" is required")
}

func (fe fieldErrors) has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}

	return false
}

// ValidateLead checks in against the lead schema and returns the resulting
// record. With current == nil the payload is a create: required fields must
// be present and status defaults to New. Otherwise the present fields are
// applied over a copy of current and cross-field rules are checked on the
// merged record. The returned error is a *ValidationError.
func ValidateLead(in *LeadInput, current *Lead) (Lead, error) {
	creating := current == nil

	var out Lead
	if creating {
		out = Lead{Status: StatusNew, Tags: []string{}}
	} else {
		out = current.Clone()
	}

	var errs fieldErrors

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		n := utf8.RuneCountInString(name)

		switch {
		case n < MinFullNameLen:
			errs.add(FieldFullName, fmt.Sprintf("full_name must be at least %d characters", MinFullNameLen))
		case n > MaxFullNameLen:
			errs.add(FieldFullName, fmt.Sprintf("full_name must be at most %d characters", MaxFullNameLen))
		default:
			out.FullName = name
		}
	} else if creating {
		errs.required(FieldFullName)
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)

		switch {
		case email == "":
			out.Email = nil
		case len(email) > MaxEmailLen:
			errs.add(FieldEmail, ErrFieldTooLong(FieldEmail, MaxEmailLen))
		case emailCheck.Var(email, "email") != nil:
			errs.add(FieldEmail, "email must be a valid email address")
		default:
			out.Email = &email
		}
	}

	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phonePattern.MatchString(phone) {
			out.Phone = phone
		} else {
			errs.add(FieldPhone, "phone must be 10 to 15 digits")
		}
	} else if creating {
		errs.required(FieldPhone)
	}

	checkEnum(&errs, FieldCity, in.City, Cities, creating, &out.City)
	checkEnum(&errs, FieldPropertyType, in.PropertyType, PropertyTypes, creating, &out.PropertyType)

	if in.BHK != nil {
		raw := strings.TrimSpace(*in.BHK)
		if raw == "" {
			out.BHK = nil
		} else if v, ok := oneOf(BHKs, raw); ok {
			out.BHK = &v
		} else {
			errs.add(FieldBHK, "bhk must be one of "+joinValues(BHKs))
		}
	}

	if out.PropertyType.Residential() && out.BHK == nil && !errs.has(FieldBHK) {
		errs.add(FieldBHK, fmt.Sprintf("bhk is required for %s and %s", PropertyApartment, PropertyVilla))
	}

	checkEnum(&errs, FieldPurpose, in.Purpose, Purposes, creating, &out.Purpose)

	if in.BudgetMin != nil {
		if *in.BudgetMin <= 0 {
			errs.add(FieldBudgetMin, "budget_min must be a positive integer")
		} else {
			v := *in.BudgetMin
			out.BudgetMin = &v
		}
	}

	if in.BudgetMax != nil {
		if *in.BudgetMax <= 0 {
			errs.add(FieldBudgetMax, "budget_max must be a positive integer")
		} else {
			v := *in.BudgetMax
			out.BudgetMax = &v
		}
	}

	if out.BudgetMin != nil && out.BudgetMax != nil && *out.BudgetMax < *out.BudgetMin {
		errs.add(FieldBudgetMax, "budget_max must be greater than or equal to budget_min")
	}

	checkEnum(&errs, FieldTimeline, in.Timeline, Timelines, creating, &out.Timeline)
	checkEnum(&errs, FieldSource, in.Source, Sources, creating, &out.Source)

	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		if utf8.RuneCountInString(notes) > MaxNotesLen {
			errs.add(FieldNotes, ErrFieldTooLong(FieldNotes, MaxNotesLen))
		} else {
			out.Notes = notes
		}
	}

	if in.Tags != nil {
		out.Tags = NormalizeTags(*in.Tags)
	}

	if in.Status != nil {
		if v, ok := oneOf(Statuses, strings.TrimSpace(*in.Status)); ok {
			out.Status = v
		} else {
			errs.add(FieldStatus, "status must be one of "+joinValues(Statuses))
		}
	}

	if len(errs) > 0 {
		return Lead{}, &ValidationError{Errors: errs}
	}

	return out, nil
}

// checkEnum validates an optional raw enum value and stores it in dst.
func checkEnum[T ~string](errs *fieldErrors, field string, raw *string, values []T, required bool, dst *T) {
	if raw == nil {
		if required {
			errs.required(field)
		}

		return
	}

	v, ok := oneOf(values, strings.TrimSpace(*raw))
	if !ok {
		errs.add(field, field+" must be one of "+joinValues(values))

		return
	}

	*dst = v
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}

		if _, dup := seen[t]; dup {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

// Clone returns a deep copy of l.
func (l Lead) Clone() Lead {
	c := l
	c.Email = clonePtr(l.Email)
	c.BHK = clonePtr(l.BHK)
	c.BudgetMin = clonePtr(l.BudgetMin)
	c.BudgetMax = clonePtr(l.BudgetMax)

	if l.Tags != nil {
		c.Tags = append([]string(nil), l.Tags...)
	}

	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
